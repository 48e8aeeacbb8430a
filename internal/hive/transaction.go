package hive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"
)

// Operation ids from the Hive protocol.
const opCustomJSON = 18

// CustomJSONOp is a custom_json operation body.
type CustomJSONOp struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// Transaction is a condenser-format transaction carrying custom_json
// operations.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     time.Time
	Operations     []CustomJSONOp
	Signatures     []string
}

// MarshalJSON emits the condenser wire format, where each operation is a
// ["custom_json", body] pair.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	ops := make([][2]any, len(t.Operations))
	for i, op := range t.Operations {
		ops[i] = [2]any{"custom_json", op}
	}
	sigs := t.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	return json.Marshal(map[string]any{
		"ref_block_num":    t.RefBlockNum,
		"ref_block_prefix": t.RefBlockPrefix,
		"expiration":       t.Expiration.UTC().Format(TimeLayout),
		"operations":       ops,
		"extensions":       []any{},
		"signatures":       sigs,
	})
}

// Serialize produces the canonical binary form that gets signed.
func (t *Transaction) Serialize() []byte {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, t.RefBlockNum)
	binary.Write(&buf, binary.LittleEndian, t.RefBlockPrefix)
	binary.Write(&buf, binary.LittleEndian, uint32(t.Expiration.Unix()))

	writeVarint(&buf, uint64(len(t.Operations)))
	for _, op := range t.Operations {
		writeVarint(&buf, opCustomJSON)
		writeStringSlice(&buf, op.RequiredAuths)
		writeStringSlice(&buf, op.RequiredPostingAuths)
		writeString(&buf, op.ID)
		writeString(&buf, op.JSON)
	}

	// No extensions
	writeVarint(&buf, 0)

	return buf.Bytes()
}

// jsonMarshalCompact marshals without HTML escaping; the serialized
// payload is part of the signed bytes so it must match what nodes store.
func jsonMarshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeVarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeStringSlice(buf *bytes.Buffer, ss []string) {
	writeVarint(buf, uint64(len(ss)))
	for _, s := range ss {
		writeString(buf, s)
	}
}
