package router

import "github.com/memfabric/frouter/internal/fabric"

// nodeMHC is the minimum hop count written into every node-level table
// entry (SSDT/MSDT/LPRT/MPRT), regardless of the routing algorithm: these
// are terminal, single-hop-to-the-fabric entries, not multi-hop switch
// traversals (spec.md testable property #4).
const nodeMHC = 7

// closureGCIDs returns the GCIDs reachable one hop beyond the direct
// neighbour attached to a node's given port: the neighbour's own GCIDs,
// plus — if the neighbour itself has a further non-switch neighbour, such
// as an IO node chained to a Memory node — that node's GCIDs too
// (spec.md §4.2.5's "Logical->IO->Memory" chain, mirrored at node level).
func closureGCIDs(m *fabric.Model, n *fabric.Node, portIdx int) []fabric.GCID {
	p := n.Port(portIdx)
	if p == nil || !p.HasRemote || p.Remote.Kind != fabric.EntityNode {
		return nil
	}
	neighbor := m.EndpointNodes()[p.Remote.Index]
	out := append([]fabric.GCID{}, neighbor.GCIDs...)

	for _, np := range neighbor.Ports {
		if np.Index == p.RemotePort {
			continue
		}
		if !np.HasRemote || np.Remote.Kind != fabric.EntityNode {
			continue
		}
		further := m.EndpointNodes()[np.Remote.Index]
		out = append(out, further.GCIDs...)
	}
	return out
}

func portsOfKind(n *fabric.Node, kind fabric.NodePortKind) []int {
	var out []int
	for _, p := range n.Ports {
		if p.NodeKind == kind {
			out = append(out, p.Index)
		}
	}
	return out
}

// ApplyNodeRoutes writes a node's SSDT, MSDT, and per-ingress-port LPRT/
// MPRT tables (spec.md §4.2.5). Every entry uses Action=EXIT, HopCount=0,
// MHC=7. R->R and L->L relay entries are written only when the node's
// model is listed in NodeRouters.
func (e *Engine) ApplyNodeRoutes(m *fabric.Model, n *fabric.Node) {
	ownSet := map[fabric.GCID]bool{}
	for _, g := range n.GCIDs {
		ownSet[g] = true
	}

	var subnetRemote, outOfSubnet []fabric.GCID
	for _, g := range m.AllGCIDs() {
		if ownSet[g] {
			continue
		}
		if int(g.SID()) == n.Subnet {
			subnetRemote = append(subnetRemote, g)
		} else {
			outOfSubnet = append(outOfSubnet, g)
		}
	}

	rPorts := portsOfKind(n, fabric.NodePortR)
	lPorts := portsOfKind(n, fabric.NodePortL)
	relay := e.params.NodeRouters[n.Model]

	for _, port := range rPorts {
		for _, g := range subnetRemote {
			m.SetSSDT(n, g.CID(), fabric.ActionExit, 0, nodeMHC, port)
		}
		for _, g := range outOfSubnet {
			m.SetMSDT(n, g.SID(), fabric.ActionExit, 0, nodeMHC, port)
		}
	}
	for _, port := range lPorts {
		for _, g := range closureGCIDs(m, n, port) {
			m.SetSSDT(n, g.CID(), fabric.ActionExit, 0, nodeMHC, port)
		}
	}

	all := append(append([]int{}, lPorts...), rPorts...)
	for _, ing := range all {
		ingKind := n.Port(ing).NodeKind
		for _, eg := range all {
			if ing == eg {
				continue
			}
			egKind := n.Port(eg).NodeKind
			switch {
			case ingKind == fabric.NodePortL && egKind == fabric.NodePortR:
				for _, g := range subnetRemote {
					m.SetLPRT(n.Port(ing), g.CID(), fabric.ActionExit, 0, nodeMHC, eg)
				}
			case ingKind == fabric.NodePortR && egKind == fabric.NodePortL:
				for _, g := range closureGCIDs(m, n, eg) {
					m.SetLPRT(n.Port(ing), g.CID(), fabric.ActionExit, 0, nodeMHC, eg)
				}
			case ingKind == fabric.NodePortR && egKind == fabric.NodePortR && relay:
				for _, g := range subnetRemote {
					m.SetLPRT(n.Port(ing), g.CID(), fabric.ActionExit, 0, nodeMHC, eg)
				}
			case ingKind == fabric.NodePortL && egKind == fabric.NodePortL && relay:
				for _, g := range closureGCIDs(m, n, eg) {
					m.SetLPRT(n.Port(ing), g.CID(), fabric.ActionExit, 0, nodeMHC, eg)
				}
			}

			if egKind != fabric.NodePortR {
				continue
			}
			if ingKind == fabric.NodePortL || (ingKind == fabric.NodePortR && relay) {
				for _, g := range outOfSubnet {
					m.SetMPRT(n.Port(ing), g.SID(), fabric.ActionExit, 0, nodeMHC, eg)
				}
			}
		}
	}
}
