package state

import (
	"fmt"
	"sort"
)

// Verify checks that observed satisfies desired and returns the paths that
// diverge, sorted. Verification is subset-shaped: every field desired
// names must match in observed, fields the caller did not mention are
// ignored. Named-list entries are matched by "name"; a desired entry with
// "state" set to "absent" requires the entry to be gone. The top-level
// "description" field is ignored.
func Verify(desired, observed Doc) []string {
	d, _ := normalize(map[string]any(desired)).(map[string]any)
	o, _ := normalize(map[string]any(observed)).(map[string]any)
	delete(d, "description")

	var paths []string
	verifyMap(d, o, "", &paths)
	sort.Strings(paths)
	return paths
}

func verifyMap(desired, observed map[string]any, prefix string, paths *[]string) {
	for k, dv := range desired {
		path := joinPath(prefix, k)
		ov, exists := observed[k]
		if !exists {
			*paths = append(*paths, path)
			continue
		}
		dm, dok := toMap(dv)
		om, ook := toMap(ov)
		if dok && ook {
			verifyMap(dm, om, path, paths)
			continue
		}
		if isNamedList(dv) && isNamedList(ov) {
			verifyNamedList(dv.([]any), ov.([]any), path, paths)
			continue
		}
		if !Equal(dv, ov) {
			*paths = append(*paths, path)
		}
	}
}

func verifyNamedList(desired, observed []any, prefix string, paths *[]string) {
	obsByName := make(map[string]map[string]any, len(observed))
	for _, e := range observed {
		if name, ok := entryName(e); ok {
			m, _ := toMap(e)
			obsByName[name] = m
		}
	}

	for _, e := range desired {
		name, _ := entryName(e)
		dm, _ := toMap(e)
		path := fmt.Sprintf("%s[name=%s]", prefix, name)
		om, exists := obsByName[name]
		if st, _ := dm["state"].(string); st == StateAbsent {
			if exists {
				*paths = append(*paths, path)
			}
			continue
		}
		if !exists {
			*paths = append(*paths, path)
			continue
		}
		verifyMap(dm, om, path, paths)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
