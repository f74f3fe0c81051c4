package state

import (
	"strings"
	"testing"
)

func TestParseAndSerializeRoundTrip(t *testing.T) {
	in := []byte(`{"interfaces":[{"name":"eth0","state":"up","mtu":1500}]}`)

	d, err := ParseJSON(in)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	j, err := d.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	back, err := ParseJSON(j)
	if err != nil {
		t.Fatalf("ParseJSON(round trip) error = %v", err)
	}
	if !Equal(d, back) {
		t.Errorf("JSON round trip changed document: %v vs %v", d, back)
	}

	y, err := d.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	fromYAML, err := ParseYAML(y)
	if err != nil {
		t.Fatalf("ParseYAML(round trip) error = %v", err)
	}
	if !Equal(d, fromYAML) {
		t.Errorf("YAML round trip changed document: %v vs %v", d, fromYAML)
	}
}

func TestParseJSONRejectsMalformed(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"interfaces":`)); err == nil {
		t.Error("ParseJSON() accepted malformed input")
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := Doc{"interfaces": []any{map[string]any{"name": "eth0", "mtu": 1500}}}
	c := d.Clone()

	iface, _ := toMap(c["interfaces"].([]any)[0])
	iface["mtu"] = 9000

	orig, _ := toMap(d["interfaces"].([]any)[0])
	if !Equal(orig["mtu"], 1500) {
		t.Errorf("Clone shares structure with original: mtu = %v", orig["mtu"])
	}
}

func TestHideSecrets(t *testing.T) {
	d := Doc{"interfaces": []any{map[string]any{
		"name": "wlan0",
		"wifi": map[string]any{
			"ssid":         "lab",
			"psk":          "hunter2",
			"old-password": "swordfish",
		},
		"802.1x": map[string]any{"private-key": "-----BEGIN KEY-----"},
	}}}

	HideSecrets(d)

	iface, _ := toMap(d["interfaces"].([]any)[0])
	wifi, _ := toMap(iface["wifi"])
	if wifi["psk"] != HiddenSecret {
		t.Errorf("psk = %v, want hidden", wifi["psk"])
	}
	if wifi["old-password"] != HiddenSecret {
		t.Errorf("old-password = %v, want hidden", wifi["old-password"])
	}
	if wifi["ssid"] != "lab" {
		t.Errorf("non-secret ssid rewritten: %v", wifi["ssid"])
	}
	dot1x, _ := toMap(iface["802.1x"])
	if dot1x["private-key"] != HiddenSecret {
		t.Errorf("private-key = %v, want hidden", dot1x["private-key"])
	}
}

func TestStripStatus(t *testing.T) {
	d := Doc{
		"status": map[string]any{"backend": "nm"},
		"interfaces": []any{map[string]any{
			"name":       "eth0",
			"state":      "up",
			"statistics": map[string]any{"rx-bytes": 10},
		}},
	}

	StripStatus(d)

	if _, ok := d["status"]; ok {
		t.Error("top-level status survived StripStatus")
	}
	iface, _ := toMap(d["interfaces"].([]any)[0])
	if _, ok := iface["statistics"]; ok {
		t.Error("interface statistics survived StripStatus")
	}
	if iface["state"] != "up" {
		t.Error("StripStatus touched configuration fields")
	}
}

func TestStripDynamic(t *testing.T) {
	d := Doc{
		"interfaces": []any{
			map[string]any{"name": "eth0", "ipv4": map[string]any{
				"enabled": true, "dhcp": true,
				"address": []any{map[string]any{"ip": "192.0.2.5", "prefix-length": 24}},
			}},
			map[string]any{"name": "eth1", "ipv4": map[string]any{
				"enabled": true, "dhcp": false,
				"address": []any{map[string]any{"ip": "192.0.2.9", "prefix-length": 24}},
			}},
		},
		"dns-resolver": map[string]any{
			"running": map[string]any{"server": []any{"192.0.2.1"}},
			"config":  map[string]any{"server": []any{"192.0.2.2"}},
		},
	}

	StripDynamic(d)

	eth0, _ := toMap(d["interfaces"].([]any)[0])
	ipv4, _ := toMap(eth0["ipv4"])
	if _, ok := ipv4["address"]; ok {
		t.Error("DHCP-learned address survived StripDynamic")
	}

	eth1, _ := toMap(d["interfaces"].([]any)[1])
	ipv4, _ = toMap(eth1["ipv4"])
	if _, ok := ipv4["address"]; !ok {
		t.Error("static address removed by StripDynamic")
	}

	dns, _ := toMap(d["dns-resolver"])
	if _, ok := dns["running"]; ok {
		t.Error("running resolver data survived StripDynamic")
	}
	if _, ok := dns["config"]; !ok {
		t.Error("configured resolver data removed by StripDynamic")
	}
}

func TestVerifySubsetSemantics(t *testing.T) {
	observed := Doc{
		"hostname": map[string]any{"config": "host.example.org", "running": "host.example.org"},
		"interfaces": []any{
			map[string]any{"name": "eth0", "state": "up", "mtu": 1500},
		},
	}

	tests := []struct {
		name      string
		desired   Doc
		wantPaths []string
	}{
		{
			name:      "exact subset matches",
			desired:   Doc{"interfaces": []any{map[string]any{"name": "eth0", "state": "up"}}},
			wantPaths: nil,
		},
		{
			name:      "description ignored",
			desired:   Doc{"description": "noop", "hostname": map[string]any{"config": "host.example.org"}},
			wantPaths: nil,
		},
		{
			name:      "scalar mismatch",
			desired:   Doc{"interfaces": []any{map[string]any{"name": "eth0", "mtu": 9000}}},
			wantPaths: []string{"interfaces[name=eth0].mtu"},
		},
		{
			name:      "missing interface",
			desired:   Doc{"interfaces": []any{map[string]any{"name": "br0", "state": "up"}}},
			wantPaths: []string{"interfaces[name=br0]"},
		},
		{
			name:      "absent satisfied",
			desired:   Doc{"interfaces": []any{map[string]any{"name": "dummy0", "state": StateAbsent}}},
			wantPaths: nil,
		},
		{
			name:      "absent violated",
			desired:   Doc{"interfaces": []any{map[string]any{"name": "eth0", "state": StateAbsent}}},
			wantPaths: []string{"interfaces[name=eth0]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(tt.desired, observed)
			if len(got) != len(tt.wantPaths) {
				t.Fatalf("Verify() = %v, want %v", got, tt.wantPaths)
			}
			for i := range got {
				if got[i] != tt.wantPaths[i] {
					t.Errorf("path %d = %q, want %q", i, got[i], tt.wantPaths[i])
				}
			}
		})
	}
}

func TestYAMLOutputIsCanonical(t *testing.T) {
	d := Doc{"routes": map[string]any{}, "hostname": map[string]any{"config": "a"}, "interfaces": []any{}}
	y, err := d.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	// Mapping keys come out sorted, so two serializations of the same
	// document are byte-identical.
	y2, _ := d.YAML()
	if string(y) != string(y2) {
		t.Error("YAML serialization is not stable")
	}
	if !strings.Contains(string(y), "hostname:") {
		t.Errorf("unexpected YAML output: %s", y)
	}
}
