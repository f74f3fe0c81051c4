package state

import "strings"

// HiddenSecret replaces secret values in a state report when secrets were
// not requested. The token matches the one used by the original engine so
// a round-tripped report stays recognizable.
const HiddenSecret = "<_password_hid_by_nmstate>"

// secretKey reports whether a field holds sensitive material.
func secretKey(key string) bool {
	if strings.Contains(key, "password") || strings.Contains(key, "psk") {
		return true
	}
	switch key {
	case "private-key", "mka-cak", "wep-key":
		return true
	}
	return false
}

// HideSecrets walks the document in place and replaces the value of every
// secret-bearing field with the HiddenSecret token.
func HideSecrets(d Doc) {
	hideSecrets(map[string]any(d))
}

func hideSecrets(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if secretKey(k) {
				t[k] = HiddenSecret
				continue
			}
			hideSecrets(val)
		}
	case Doc:
		hideSecrets(map[string]any(t))
	case []any:
		for _, e := range t {
			hideSecrets(e)
		}
	}
}

// StripStatus removes runtime status sections from a report: the
// top-level "status" mapping and per-entry "statistics" of named lists.
// Reports include these only when status data was requested.
func StripStatus(d Doc) {
	delete(d, "status")
	for _, v := range d {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for _, e := range list {
			if m, ok := toMap(e); ok {
				delete(m, "statistics")
			}
		}
	}
}

// StripDynamic removes configuration learned at runtime rather than
// configured: addresses under an IP stanza with DHCP or IPv6
// autoconfiguration enabled, and the running DNS resolver data. Used for
// running-config-only reports.
func StripDynamic(d Doc) {
	if ifaces, ok := d["interfaces"].([]any); ok {
		for _, e := range ifaces {
			m, ok := toMap(e)
			if !ok {
				continue
			}
			for _, fam := range []string{"ipv4", "ipv6"} {
				ip, ok := toMap(m[fam])
				if !ok {
					continue
				}
				dhcp, _ := ip["dhcp"].(bool)
				autoconf, _ := ip["autoconf"].(bool)
				if dhcp || autoconf {
					delete(ip, "address")
				}
			}
		}
	}
	if dns, ok := toMap(d["dns-resolver"]); ok {
		delete(dns, "running")
	}
}
