package climate

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodePacket(t *testing.T) {
	p, err := DecodePacket([]byte(`{"t":"res","mac":"aa","opt":["Pow"],"val":[1]}`))
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if !p.IsAck() || p.IsStatus() {
		t.Errorf("classification wrong for %v", p)
	}
	vals, ok := p["val"].([]any)
	if !ok || len(vals) != 1 {
		t.Fatalf("val = %#v", p["val"])
	}
	if _, ok := vals[0].(json.Number); !ok {
		t.Errorf("val[0] = %T, want json.Number", vals[0])
	}
}

func TestDecodePacketErrors(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"dat"`, `{`, ``} {
		if _, err := DecodePacket([]byte(in)); !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("DecodePacket(%q) error = %v, want ErrMalformedPacket", in, err)
		}
	}

	p, err := DecodePacket([]byte(`null`))
	if err != nil || p != nil {
		t.Errorf("DecodePacket(null) = %v, %v", p, err)
	}
}

func TestPacketClassificationWithoutKind(t *testing.T) {
	status := Packet{"cols": []any{}, "dat": []any{}}
	if !status.IsStatus() || status.IsAck() {
		t.Error("cols/dat packet should classify as status")
	}
	ack := Packet{"opt": []any{}, "val": []any{}}
	if !ack.IsAck() || ack.IsStatus() {
		t.Error("opt/val packet should classify as ack")
	}
	if (Packet{"t": 7}).Kind() != "" {
		t.Error("non-string kind should read as empty")
	}
}

func TestColumnsAndValuesTypedSlices(t *testing.T) {
	p := Packet{"cols": []string{"Pow", "Mod"}, "dat": []int{1, 2}}
	cols, vals, err := p.columnsAndValues(keyStatusColumns, keyStatusData)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[1] != "Mod" || vals[1] != 2 {
		t.Errorf("cols = %v, vals = %v", cols, vals)
	}
}
