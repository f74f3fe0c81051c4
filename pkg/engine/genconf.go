package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NetworkManager/nmstate/pkg/protocol"
	"github.com/NetworkManager/nmstate/pkg/state"
)

// GenerateConfigurations renders the persistent artifacts that would
// realize desired, without touching live state. Each interface renders
// as one NetworkManager keyfile named "<interface>.nmconnection"; the
// result maps the provider name to ordered (name, content) pairs.
func (e *Engine) GenerateConfigurations(ctx context.Context, desired []byte) (configs, logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	rec := e.newRecorder("genconf")
	defer func() { e.observe("genconf", start, rc) }()

	doc, err := state.ParseYAML(desired)
	if err != nil {
		logs, errKind, errMsg = e.failure(rec, kindInvalidArgument, "invalid desired state: %v", err)
		return nil, logs, errKind, errMsg, protocol.Fail
	}

	files := make([][2]string, 0)
	ifaces, _ := doc["interfaces"].([]any)
	for _, entry := range ifaces {
		iface, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := iface["name"].(string)
		if name == "" {
			continue
		}
		if s, _ := iface["state"].(string); s == state.StateAbsent {
			continue
		}
		files = append(files, [2]string{name + ".nmconnection", renderKeyfile(name, iface)})
	}
	rec.Infof("generated %d NetworkManager connection profiles", len(files))

	b, err := json.Marshal(map[string][][2]string{"NetworkManager": files})
	if err != nil {
		logs, errKind, errMsg = e.failure(rec, kindBug, "failed to serialize configurations: %v", err)
		return nil, logs, errKind, errMsg, protocol.Fail
	}
	return e.newBuffer(b), rec.batch(), nil, nil, protocol.Pass
}

func renderKeyfile(name string, iface map[string]any) string {
	var b strings.Builder
	b.WriteString("[connection]\n")
	fmt.Fprintf(&b, "id=%s\n", name)
	fmt.Fprintf(&b, "uuid=%s\n", uuid.NewString())
	fmt.Fprintf(&b, "type=%s\n", keyfileType(iface["type"]))
	fmt.Fprintf(&b, "interface-name=%s\n", name)
	b.WriteString("\n")
	writeIPSection(&b, "ipv4", section(iface["ipv4"]))
	writeIPSection(&b, "ipv6", section(iface["ipv6"]))
	return b.String()
}

// keyfileType maps a state interface type to the keyfile connection
// type.
func keyfileType(v any) string {
	t, _ := v.(string)
	switch t {
	case "linux-bridge":
		return "bridge"
	case "", "unknown":
		return "ethernet"
	default:
		return t
	}
}

func writeIPSection(b *strings.Builder, family string, cfg map[string]any) {
	fmt.Fprintf(b, "[%s]\n", family)
	if cfg == nil || cfg["enabled"] == false {
		b.WriteString("method=disabled\n\n")
		return
	}
	if cfg["dhcp"] == true || cfg["autoconf"] == true {
		b.WriteString("method=auto\n\n")
		return
	}
	addrs, _ := cfg["address"].([]any)
	if len(addrs) == 0 {
		if family == "ipv6" {
			b.WriteString("method=ignore\n\n")
		} else {
			b.WriteString("method=disabled\n\n")
		}
		return
	}
	b.WriteString("method=manual\n")
	for i, a := range addrs {
		am, ok := a.(map[string]any)
		if !ok {
			continue
		}
		ip, _ := am["ip"].(string)
		if prefix, ok := am["prefix-length"]; ok {
			fmt.Fprintf(b, "address%d=%s/%v\n", i+1, ip, prefix)
		} else {
			fmt.Fprintf(b, "address%d=%s\n", i+1, ip)
		}
	}
	b.WriteString("\n")
}

func section(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
