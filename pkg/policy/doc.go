// Package policy derives concrete desired network state from declarative
// policy documents.
//
// A policy names no interfaces directly. Instead it captures pieces of
// the current state with path expressions and templates a desired state
// from the captured values, so the same policy applies to hosts whose
// interface names or addresses differ:
//
//	capture:
//	  default-gw: routes.config.#(destination=="0.0.0.0/0")#
//	  base-iface: interfaces.#(name=="eth1")
//	desiredState:
//	  interfaces:
//	  - name: br1
//	    type: linux-bridge
//	    mtu: "{{ capture.base-iface.mtu }}"
//
// Capture expressions use the gjson path syntax, evaluated against the
// current state document; the prefix "capture." resolves against captures
// already taken, in any order that terminates. Inside desiredState,
// "{{ expression }}" placeholders are replaced with the value the
// expression selects; a placeholder spanning an entire string keeps the
// selected value's type.
package policy
