package state

// Diff returns a state-shaped document containing only the fields of
// newDoc that differ from oldDoc. Equal inputs produce an empty document.
// The comparison is structural and deterministic; representation
// differences between decoders do not count as changes.
//
// Named lists are compared entry-by-entry keyed on "name"; a changed entry
// appears in the result reduced to its "name" plus the changed fields, and
// an entry absent from oldDoc appears whole.
func Diff(newDoc, oldDoc Doc) Doc {
	n, _ := normalize(map[string]any(newDoc)).(map[string]any)
	o, _ := normalize(map[string]any(oldDoc)).(map[string]any)
	return Doc(diffMap(n, o))
}

func diffMap(newM, oldM map[string]any) map[string]any {
	out := make(map[string]any)
	for k, nv := range newM {
		ov, exists := oldM[k]
		if !exists {
			out[k] = nv
			continue
		}
		nm, nok := toMap(nv)
		om, ook := toMap(ov)
		if nok && ook {
			if sub := diffMap(nm, om); len(sub) > 0 {
				out[k] = sub
			}
			continue
		}
		if isNamedList(nv) && isNamedList(ov) {
			if sub := diffNamedList(nv.([]any), ov.([]any)); len(sub) > 0 {
				out[k] = sub
			}
			continue
		}
		if !Equal(nv, ov) {
			out[k] = nv
		}
	}
	return out
}

func diffNamedList(newL, oldL []any) []any {
	oldByName := make(map[string]map[string]any, len(oldL))
	for _, e := range oldL {
		if name, ok := entryName(e); ok {
			m, _ := toMap(e)
			oldByName[name] = m
		}
	}

	var out []any
	for _, e := range newL {
		name, _ := entryName(e)
		nm, _ := toMap(e)
		om, exists := oldByName[name]
		if !exists {
			out = append(out, nm)
			continue
		}
		changed := diffMap(nm, om)
		if len(changed) > 0 {
			changed["name"] = name
			out = append(out, changed)
		}
	}
	return out
}
