// Package apply implements the Applier (spec.md §4.3): the two passes that
// turn a built Fabric Model plus a resolved router.Controller into
// populated LPRT/MPRT/SSDT/MSDT/VCAT tables, ready for serialization.
package apply

import (
	"github.com/memfabric/frouter/internal/fabric"
	"github.com/memfabric/frouter/internal/router"
)

const (
	switchMHC  = 1 // X-family hop, within a single routing lane
	switchYMHC = 2 // Y-family hop, crossing a subnet
)

// Apply runs both passes over m, mutating every table it touches. Returns
// the first error encountered, which is a VCAT contradiction from any TC's
// engine.
func Apply(m *fabric.Model, c *router.Controller) error {
	if err := applyCoreFabric(m, c); err != nil {
		return err
	}
	return applyEdgeFabric(m, c)
}

// applyCoreFabric is pass 1: LPRT/MPRT and VCAT for every logical switch
// (spec.md §4.3 item 1).
func applyCoreFabric(m *fabric.Model, c *router.Controller) error {
	switches := m.LogicalSwitches()
	engine := c.Primary.Engine

	for _, src := range switches {
		for _, dst := range switches {
			if dst.Index != src.Index || dst.Plane != src.Plane {
				continue // switch_to_switch_routes only spans one Index lane, one plane
			}

			if dst == src {
				applyDestinationSwitch(m, src)
				continue
			}

			info := engine.SwitchToSwitchRoutes(m, src, dst)
			if info == nil {
				continue
			}
			applyTransitSwitchPair(m, src, dst, info)
		}

		if err := c.SynthesizeSwitchVCAT(m, src); err != nil {
			return err
		}
	}
	return nil
}

// applyDestinationSwitch writes the EXIT-only path at a logical switch
// that is itself the destination: every switch port other than the egress
// port is a valid ingress, egress is the single L port facing each directly- or one-hop-reachable
// endpoint, keyed by that endpoint's GCIDs (spec.md §4.3 item 1, last
// sentence).
func applyDestinationSwitch(m *fabric.Model, sw *fabric.Switch) {
	allPorts := make([]int, 0, len(sw.Ports))
	for idx := range sw.Ports {
		allPorts = append(allPorts, idx)
	}

	for _, entry := range sw.Closure {
		for _, g := range entry.GCIDs {
			for _, ingress := range allPorts {
				if ingress == entry.ViaPort {
					continue // no reflection back out of the ingress port
				}
				if int(g.SID()) == sw.Subnet {
					m.SetLPRT(sw.Ports[ingress], g.CID(), fabric.ActionExit, 0, 7, entry.ViaPort)
				} else {
					m.SetMPRT(sw.Ports[ingress], g.SID(), fabric.ActionExit, 0, 7, entry.ViaPort)
				}
			}
		}
	}
}

// reachableGCIDs collects every GCID reachable behind a logical switch:
// its own split-off GCID set, plus every closure entry's GCIDs.
func reachableGCIDs(sw *fabric.Switch) []fabric.GCID {
	out := append([]fabric.GCID{}, sw.GCIDs...)
	for _, entry := range sw.Closure {
		out = append(out, entry.GCIDs...)
	}
	return out
}

// applyTransitSwitchPair writes one (src, dst) pair's contribution to
// src's LPRT/MPRT: for every allowed (port-kind, route-type) in the engine's
// routing state, every ingress port of that kind gets one alternative per
// egress port in the route-type's port set, keyed by dst's reachable GCIDs
// — CID for an X-family route-type (LPRT), SID for a Y-family one (MPRT),
// mirroring how the two tables are selected purely by action family rather
// than by whether dst's subnet happens to match src's own (spec.md §4.3
// design note, see DESIGN.md).
func applyTransitSwitchPair(m *fabric.Model, src, dst *fabric.Switch, info *router.RouteInfo) {
	targets := reachableGCIDs(dst)

	for _, kind := range []fabric.SwitchPortKind{fabric.SwitchPortL, fabric.SwitchPortX, fabric.SwitchPortY} {
		entry := info.Allowed[kind]
		ingressPorts := src.PortsOfKind(kind)
		if len(ingressPorts) == 0 {
			continue
		}

		for action := range entry {
			if action == fabric.ActionExit {
				continue // handled by applyDestinationSwitch when src==dst
			}
			egressPorts := info.Ports.ForAction(action)
			hopcount := action.HopCount()

			for _, ingress := range ingressPorts {
				for _, egress := range egressPorts {
					if ingress == egress {
						continue
					}
					if action.IsXFamily() {
						for _, g := range targets {
							m.SetLPRT(src.Ports[ingress], g.CID(), action, hopcount, switchMHC, egress)
						}
					} else if action.IsYFamily() {
						for _, g := range targets {
							m.SetMPRT(src.Ports[ingress], g.SID(), action, hopcount, switchYMHC, egress)
						}
					}
				}
			}
		}
	}
}

// applyEdgeFabric is pass 2: SSDT/MSDT/LPRT/MPRT/VCAT for every non-switch
// node (spec.md §4.3 item 2).
func applyEdgeFabric(m *fabric.Model, c *router.Controller) error {
	for _, n := range m.EndpointNodes() {
		if !n.Enabled {
			continue
		}
		c.Primary.Engine.ApplyNodeRoutes(m, n)
		if err := c.SynthesizeNodeVCAT(m, n); err != nil {
			return err
		}
	}
	return nil
}
