package state

// StateAbsent marks a named entry for removal when merging a desired
// document into the current one.
const StateAbsent = "absent"

// Merge returns the result of applying desired on top of current. Neither
// input is modified.
//
// Mappings merge recursively; a nil desired value deletes the key. Named
// lists merge entry-by-entry keyed on "name": existing entries are merged
// in place, new entries are appended in desired order, and an entry whose
// "state" is "absent" removes its counterpart. Any other value in desired
// replaces the current one. The top-level "description" field is a
// documentation aid and is never persisted.
func Merge(current, desired Doc) Doc {
	cur := current.Clone()
	if cur == nil {
		cur = Doc{}
	}
	des, _ := normalize(map[string]any(desired)).(map[string]any)
	merged := mergeMap(map[string]any(cur), des)
	delete(merged, "description")
	return Doc(merged)
}

func mergeMap(current, desired map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(desired))
	for k, v := range current {
		out[k] = v
	}
	for k, dv := range desired {
		if dv == nil {
			delete(out, k)
			continue
		}
		cv, exists := out[k]
		if !exists {
			out[k] = dv
			continue
		}
		cm, cok := toMap(cv)
		dm, dok := toMap(dv)
		if cok && dok {
			out[k] = mergeMap(cm, dm)
			continue
		}
		if isNamedList(cv) && isNamedList(dv) {
			out[k] = mergeNamedList(cv.([]any), dv.([]any))
			continue
		}
		out[k] = dv
	}
	return out
}

func mergeNamedList(current, desired []any) []any {
	byName := make(map[string]int, len(current))
	out := make([]any, 0, len(current)+len(desired))
	for i, e := range current {
		name, _ := entryName(e)
		byName[name] = i
		out = append(out, e)
	}

	removed := make(map[string]bool)
	for _, de := range desired {
		name, _ := entryName(de)
		dm, _ := toMap(de)
		if st, _ := dm["state"].(string); st == StateAbsent {
			removed[name] = true
			continue
		}
		if i, ok := byName[name]; ok {
			cm, _ := toMap(out[i])
			out[i] = mergeMap(cm, dm)
			continue
		}
		byName[name] = len(out)
		out = append(out, dm)
	}

	if len(removed) == 0 {
		return out
	}
	kept := out[:0]
	for _, e := range out {
		name, _ := entryName(e)
		if !removed[name] {
			kept = append(kept, e)
		}
	}
	return kept
}
