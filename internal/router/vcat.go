package router

import "github.com/memfabric/frouter/internal/fabric"

var allLocations = []LocationCode{LocXY, LocXy, LocxY, Locxy}

func containsRC(rcs []int, rc int) bool {
	for _, v := range rcs {
		if v == rc {
			return true
		}
	}
	return false
}

// SynthesizeSwitchVCAT writes every TC's VCAT cells for one logical switch's
// ports (spec.md §4.2, VCAT synthesis). Per-port threshold/mask/action only
// depend on (location, port-kind, action, rc) — never on which destination
// switch a packet is actually bound for — so this walks the four fixed
// LocationCode values directly rather than every reachable destination
// switch (see DESIGN.md). Every TC independently contributes cells; SetVCAT
// raises a contradiction error if two TCs disagree on the same cell.
func (c *Controller) SynthesizeSwitchVCAT(m *fabric.Model, sw *fabric.Switch) error {
	for _, port := range sw.Ports {
		for _, tc := range c.TCs {
			for _, ve := range tc.Engine.vcMap {
				rcMasks := tc.RCMasks(ve.PC)
				for _, loc := range allLocations {
					entry := tc.Engine.StateEntry(loc, port.SwitchKind)
					for action, rcs := range entry {
						if !containsRC(rcs, ve.RC) {
							continue
						}
						mask := tc.Engine.Mask(loc, port.SwitchKind, action, ve.RC, rcMasks)
						threshold := tc.Engine.Threshold(port.SwitchKind, action, ve.RC)
						if err := m.SetVCAT(port, ve.VC, action, mask, threshold, string(port.SwitchKind)); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

// SynthesizeNodeVCAT writes a node's own per-port VCAT row plus its
// REQ-VCAT/RSP-VCAT tables (spec.md §4.2.5, node_vcats). A node's fabric
// attachment only ever exits the fabric at this node, so its per-port row
// is computed uniformly as portKind=L, action=EXIT — unlike a switch port,
// it never carries X/Y-family cells.
func (c *Controller) SynthesizeNodeVCAT(m *fabric.Model, n *fabric.Node) error {
	for _, port := range n.Ports {
		for _, tc := range c.TCs {
			for _, ve := range tc.Engine.vcMap {
				rcMasks := tc.RCMasks(ve.PC)
				entry := tc.Engine.StateEntry(LocXY, fabric.SwitchPortL)
				rcs, ok := entry[fabric.ActionExit]
				if !ok || !containsRC(rcs, ve.RC) {
					continue
				}
				mask := tc.Engine.Mask(LocXY, fabric.SwitchPortL, fabric.ActionExit, ve.RC, rcMasks)
				threshold := tc.Engine.Threshold(fabric.SwitchPortL, fabric.ActionExit, ve.RC)
				if err := m.SetVCAT(port, ve.VC, fabric.ActionExit, mask, threshold, "L"); err != nil {
					return err
				}
			}
		}
	}

	for _, tc := range c.TCs {
		reqPC, rspPC := tc.RequestPC(), tc.ResponsePC()
		delta := tc.ResponseDelta()
		reqMasks := tc.RCMasks(reqPC)
		rspMasks := tc.RCMasks(rspPC)

		for _, ve := range tc.Engine.vcMap {
			switch ve.PC {
			case reqPC:
				entry := tc.Engine.StateEntry(LocXY, fabric.SwitchPortL)
				rcs, ok := entry[fabric.ActionExit]
				if !ok || !containsRC(rcs, ve.RC) {
					continue
				}
				mask := tc.Engine.Mask(LocXY, fabric.SwitchPortL, fabric.ActionExit, ve.RC, reqMasks)
				threshold := tc.Engine.Threshold(fabric.SwitchPortL, fabric.ActionExit, ve.RC)
				if err := m.SetREQVCAT(n, ve.VC, fabric.ActionExit, mask, threshold); err != nil {
					return err
				}
			case rspPC:
				entry := tc.Engine.StateEntry(LocXY, fabric.SwitchPortL)
				rcs, ok := entry[fabric.ActionExit]
				if !ok || !containsRC(rcs, ve.RC) {
					continue
				}
				mask := tc.Engine.Mask(LocXY, fabric.SwitchPortL, fabric.ActionExit, ve.RC, rspMasks)
				threshold := tc.Engine.Threshold(fabric.SwitchPortL, fabric.ActionExit, ve.RC)
				if err := m.SetRSPVCAT(n, ve.VC-delta, fabric.ActionExit, mask, threshold); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
