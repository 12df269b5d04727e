// Package fabricio loads the single fabric configuration document
// (Nodes/Connections/Constants/Routing) into the fabric.BuildInput and
// router.TCInput shapes internal/fabric and internal/router consume. There
// is no separate routing-policy overlay document.
package fabricio

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/memfabric/frouter/internal/fabric"
	"github.com/memfabric/frouter/internal/ferrors"
	"github.com/memfabric/frouter/internal/router"
)

// rawConfig is the top-level shape of the config document (spec.md §6).
// Nodes/Constants/Routing are kept as json.RawMessage because their inner
// shape (tuple arrays, dynamic PC<k>/RC<r> keys) doesn't map onto a single
// static struct — they're picked apart field-by-field below.
type rawConfig struct {
	Nodes       map[string]map[string]json.RawMessage `json:"Nodes"`
	Connections map[string]string                     `json:"Connections"`
	Constants   map[string]json.RawMessage             `json:"Constants"`
	Routing     map[string]json.RawMessage             `json:"Routing"`
}

// LoadConfig reads the fabric configuration file at path (JSON, or YAML if
// the extension is .yml/.yaml) and returns the parsed fabric.BuildInput and
// router.TCInput list.
func LoadConfig(path string) (fabric.BuildInput, []router.TCInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fabric.BuildInput{}, nil, ferrors.NewConfigError("config", path, err.Error())
	}

	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return fabric.BuildInput{}, nil, ferrors.NewConfigError("config", path, err.Error())
		}
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return fabric.BuildInput{}, nil, ferrors.NewConfigError("config", path, err.Error())
	}

	ranges, dimensions, err := parseConstants(raw.Constants)
	if err != nil {
		return fabric.BuildInput{}, nil, err
	}

	nodes, err := parseNodes(raw.Nodes)
	if err != nil {
		return fabric.BuildInput{}, nil, err
	}

	conns, err := parseConnections(raw.Connections)
	if err != nil {
		return fabric.BuildInput{}, nil, err
	}

	tcs, err := parseRouting(raw.Routing, dimensions)
	if err != nil {
		return fabric.BuildInput{}, nil, err
	}

	return fabric.BuildInput{Nodes: nodes, Connections: conns, Ranges: ranges}, tcs, nil
}

func isYAML(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// yamlToJSON re-encodes a YAML document as JSON so the rest of this package
// only ever has to deal with one input format.
func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return json.Marshal(normalizeYAML(v))
}

// normalizeYAML converts the map[string]interface{} gopkg.in/yaml.v3 (under
// certain node styles) and map[interface{}]interface{} (legacy) shapes into
// map[string]interface{} so encoding/json.Marshal doesn't reject them.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// parseNodes decodes Nodes: model -> name -> tuple(address, topology-id,
// geo-id, enabled, gcid-hex-strings). The tuple's trailing fields (geo-id,
// gcids) are optional, so each element is probed by gjson index rather than
// unmarshaled into a fixed-arity Go slice, which would error on a short
// tuple instead of defaulting the missing fields.
func parseNodes(raw map[string]map[string]json.RawMessage) ([]fabric.NodeInput, error) {
	var out []fabric.NodeInput
	var modelNames []string
	for m := range raw {
		modelNames = append(modelNames, m)
	}
	sort.Strings(modelNames)

	for _, modelName := range modelNames {
		model := fabric.NodeModel(modelName)
		switch model {
		case fabric.ModelSwitch, fabric.ModelCompute, fabric.ModelIO, fabric.ModelMemory:
		default:
			return nil, ferrors.NewConfigError("Nodes", modelName, "unknown node model")
		}

		var names []string
		for n := range raw[modelName] {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, name := range names {
			tuple := raw[modelName][name]
			input, err := parseNodeTuple(model, name, tuple)
			if err != nil {
				return nil, err
			}
			out = append(out, input)
		}
	}
	return out, nil
}

func parseNodeTuple(model fabric.NodeModel, name string, tuple json.RawMessage) (fabric.NodeInput, error) {
	raw := string(tuple)
	if !gjson.Valid(raw) {
		return fabric.NodeInput{}, ferrors.NewConfigError("Nodes", name, "malformed tuple")
	}

	result := gjson.Parse(raw)
	if !result.IsArray() {
		return fabric.NodeInput{}, ferrors.NewConfigError("Nodes", name, "tuple must be a JSON array")
	}
	elems := result.Array()

	get := func(i int) gjson.Result {
		if i >= len(elems) {
			return gjson.Result{}
		}
		return elems[i]
	}

	address := get(0).String()
	topoID := get(1).String()
	geoID := get(2).String()
	enabled := true
	if e := get(3); e.Exists() {
		enabled = e.Bool()
	}

	var gcids []fabric.GCID
	for _, g := range get(4).Array() {
		v, err := strconv.ParseUint(strings.TrimPrefix(g.String(), "0x"), 16, 32)
		if err != nil {
			return fabric.NodeInput{}, ferrors.NewConfigError("Nodes", name, "bad GCID hex string: "+g.String())
		}
		gcids = append(gcids, fabric.GCID(v))
	}

	if topoID == "" {
		return fabric.NodeInput{}, ferrors.NewConfigError("Nodes", name, "missing topology id")
	}

	return fabric.NodeInput{
		Name:    name,
		Model:   model,
		Address: address,
		TopoID:  topoID,
		GeoID:   geoID,
		Enabled: enabled,
		GCIDs:   gcids,
	}, nil
}

// parseConnections decodes Connections: "srcName,srcPort" -> "dstName,dstPort".
func parseConnections(raw map[string]string) ([]fabric.ConnectionInput, error) {
	var keys []string
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []fabric.ConnectionInput
	for _, srcEndpoint := range keys {
		dstEndpoint := raw[srcEndpoint]

		srcName, srcPort, err := splitEndpoint(srcEndpoint)
		if err != nil {
			return nil, ferrors.NewConfigError("Connections", srcEndpoint, err.Error())
		}
		dstName, dstPort, err := splitEndpoint(dstEndpoint)
		if err != nil {
			return nil, ferrors.NewConfigError("Connections", srcEndpoint, err.Error())
		}

		out = append(out, fabric.ConnectionInput{
			SrcName: srcName, SrcPort: srcPort,
			DstName: dstName, DstPort: dstPort,
		})
	}
	return out, nil
}

func splitEndpoint(s string) (name string, port int, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("endpoint %q must be \"name,port\"", s)
	}
	port, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", 0, fmt.Errorf("endpoint %q has non-numeric port: %w", s, err)
	}
	return strings.TrimSpace(parts[0]), port, nil
}

// parseConstants decodes Constants: per-model ranges plus the global
// Fabric.Dimensions default.
func parseConstants(raw map[string]json.RawMessage) (map[fabric.NodeModel]fabric.ModelRanges, int, error) {
	ranges := map[fabric.NodeModel]fabric.ModelRanges{}
	dimensions := 2

	for _, model := range []fabric.NodeModel{fabric.ModelSwitch, fabric.ModelCompute, fabric.ModelIO, fabric.ModelMemory} {
		msg, ok := raw[string(model)]
		if !ok {
			continue
		}
		r, err := parseModelRanges(string(model), msg)
		if err != nil {
			return nil, 0, err
		}
		ranges[model] = r
	}

	if msg, ok := raw["Fabric"]; ok {
		if v := gjson.GetBytes(msg, "Dimensions"); v.Exists() {
			dimensions = int(v.Int())
		}
	}

	return ranges, dimensions, nil
}

func parseModelRanges(model string, msg json.RawMessage) (fabric.ModelRanges, error) {
	get := func(key string) (fabric.Range, error) {
		v := gjson.GetBytes(msg, key)
		if !v.Exists() {
			return fabric.Range{}, nil
		}
		arr := v.Array()
		if len(arr) != 2 {
			return fabric.Range{}, ferrors.NewConfigError("Constants", model+"."+key, "range must be [lo, hi]")
		}
		return fabric.Range{Lo: int(arr[0].Int()), Hi: int(arr[1].Int())}, nil
	}

	var r fabric.ModelRanges
	var err error
	if r.Switches, err = get("SWITCHES"); err != nil {
		return r, err
	}
	if r.SwitchPorts, err = get("SWITCH_PORTS"); err != nil {
		return r, err
	}
	if r.FabricAdapterPorts, err = get("FABRIC_ADAPTER_PORTS"); err != nil {
		return r, err
	}
	if r.Endpoints, err = get("ENDPOINTS"); err != nil {
		return r, err
	}
	if r.VCs, err = get("VCS"); err != nil {
		return r, err
	}
	return r, nil
}

// parseRouting decodes Routing: TC<n> -> {Parameters, PC<k>: {RC<r>: [VC...]}}.
func parseRouting(raw map[string]json.RawMessage, globalDimensions int) ([]router.TCInput, error) {
	var tcNames []string
	for n := range raw {
		tcNames = append(tcNames, n)
	}
	sort.Strings(tcNames)

	var out []router.TCInput
	for _, tcName := range tcNames {
		tc, err := parseTC(tcName, raw[tcName], globalDimensions)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

func parseTC(name string, msg json.RawMessage, globalDimensions int) (router.TCInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return router.TCInput{}, ferrors.NewConfigError("Routing", name, err.Error())
	}

	params := router.RawParameters{Dimensions: &globalDimensions}
	if paramsMsg, ok := fields["Parameters"]; ok {
		if err := parseParameters(paramsMsg, &params); err != nil {
			return router.TCInput{}, ferrors.NewConfigError("Routing", name+".Parameters", err.Error())
		}
	}
	if params.Algorithm == "" {
		return router.TCInput{}, ferrors.NewConfigError("Routing", name+".Parameters.Algorithm", "required")
	}

	var pcKeys []string
	for k := range fields {
		if strings.HasPrefix(k, "PC") {
			pcKeys = append(pcKeys, k)
		}
	}
	sort.Strings(pcKeys)

	var pcs []router.PCInput
	for _, pcKey := range pcKeys {
		pc, err := parsePC(name, pcKey, fields[pcKey])
		if err != nil {
			return router.TCInput{}, err
		}
		pcs = append(pcs, pc)
	}

	return router.TCInput{Name: name, Parameters: params, PCs: pcs}, nil
}

func parseParameters(msg json.RawMessage, p *router.RawParameters) error {
	p.Algorithm = gjson.GetBytes(msg, "Algorithm").String()

	if v := gjson.GetBytes(msg, "XDimensionFirst"); v.Exists() {
		b := v.Bool()
		p.XDimensionFirst = &b
	}
	if v := gjson.GetBytes(msg, "IngressRC"); v.Exists() {
		i := int(v.Int())
		p.IngressRC = &i
	}
	if v := gjson.GetBytes(msg, "EgressRC"); v.Exists() {
		i := int(v.Int())
		p.EgressRC = &i
	}
	if v := gjson.GetBytes(msg, "Dimensions"); v.Exists() {
		i := int(v.Int())
		p.Dimensions = &i
	}
	if v := gjson.GetBytes(msg, "NodeRouters"); v.Exists() {
		for _, m := range v.Array() {
			p.NodeRouters = append(p.NodeRouters, m.String())
		}
	}
	return nil
}

func parsePC(tcName, pcKey string, msg json.RawMessage) (router.PCInput, error) {
	pcNum, err := strconv.Atoi(strings.TrimPrefix(pcKey, "PC"))
	if err != nil {
		return router.PCInput{}, ferrors.NewConfigError("Routing", tcName+"."+pcKey, "PC key must be PC<n>")
	}

	var fields map[string][]int
	if err := json.Unmarshal(msg, &fields); err != nil {
		return router.PCInput{}, ferrors.NewConfigError("Routing", tcName+"."+pcKey, err.Error())
	}

	var rcKeys []string
	for k := range fields {
		rcKeys = append(rcKeys, k)
	}
	sort.Strings(rcKeys)

	var rcs []router.RCInput
	for _, rcKey := range rcKeys {
		rcNum, err := strconv.Atoi(strings.TrimPrefix(rcKey, "RC"))
		if err != nil {
			return router.PCInput{}, ferrors.NewConfigError("Routing", tcName+"."+pcKey+"."+rcKey, "RC key must be RC<r>")
		}
		rcs = append(rcs, router.RCInput{RC: rcNum, VCs: fields[rcKey]})
	}

	return router.PCInput{PC: pcNum, RCs: rcs}, nil
}
