package lens

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Well known attribute keys.
const (
	ResourceServiceNameKey = "service.name"
	SnapshotPathKey        = "path"
	SnapshotLineKey        = "line"
	SnapshotFrameKey       = "frame"
)

// NoWatchResultMessage is the error message used when a watch result arrives with neither variant set.
const NoWatchResultMessage = "no result returned"

// ErrAmbiguousWatchResult is returned when a watch result carries both a good and an error result.
var ErrAmbiguousWatchResult = errors.New("watch result has both GoodResult and ErrorResult")

// VariableID is a named slot referencing a Variable in the VariableTable. Several VariableID values may
// carry the same ID, in which case they reference the same Variable.
type VariableID struct {
	// ID is the table position encoded as a base-10 integer string.
	ID string `json:"ID" msgpack:"ID"`
	// Name is the slot name shown to the user.
	Name string `json:"name" msgpack:"name"`
	// Modifiers lists flags such as visibility, static or final.
	Modifiers []string `json:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	// OriginalName is set when the agent renamed the variable to better suit the source.
	OriginalName string `json:"original_name,omitempty" msgpack:"original_name,omitempty"`
}

// Variable is a stored value record. Children are references, not owned copies.
type Variable struct {
	Type      string       `json:"type,omitempty" msgpack:"type,omitempty"`
	Value     string       `json:"value,omitempty" msgpack:"value,omitempty"`
	Hash      string       `json:"hash,omitempty" msgpack:"hash,omitempty"`
	Children  []VariableID `json:"children,omitempty" msgpack:"children,omitempty"`
	Truncated bool         `json:"truncated,omitempty" msgpack:"truncated,omitempty"`
}

// IsEmpty reports if no field of the record is set, the agent encoding of a null value.
func (v Variable) IsEmpty() bool {
	return v.Type == "" && v.Value == "" && v.Hash == "" && len(v.Children) == 0 && !v.Truncated
}

// Frame is one level of the captured call stack.
type Frame struct {
	FileName               string `json:"file_name" msgpack:"file_name"`
	MethodName             string `json:"method_name" msgpack:"method_name"`
	LineNumber             int    `json:"line_number" msgpack:"line_number"`
	ClassName              string `json:"class_name,omitempty" msgpack:"class_name,omitempty"`
	IsAsync                bool   `json:"is_async,omitempty" msgpack:"is_async,omitempty"`
	ColumnNumber           int    `json:"column_number,omitempty" msgpack:"column_number,omitempty"`
	TranspiledFileName     string `json:"transpiled_file_name,omitempty" msgpack:"transpiled_file_name,omitempty"`
	TranspiledLineNumber   int    `json:"transpiled_line_number,omitempty" msgpack:"transpiled_line_number,omitempty"`
	TranspiledColumnNumber int    `json:"transpiled_column_number,omitempty" msgpack:"transpiled_column_number,omitempty"`
	// Variables are the root references of this frame. A nil slice means the agent sent no variable
	// data, an empty slice means the frame has no variables.
	Variables []VariableID `json:"variables" msgpack:"variables"`
	AppFrame  bool         `json:"app_frame,omitempty" msgpack:"app_frame,omitempty"`
}

// HasVariableData reports if the variables field was present in the payload.
func (f Frame) HasVariableData() bool {
	return f.Variables != nil
}

// Tracepoint describes the instrumentation point which produced the snapshot.
type Tracepoint struct {
	ID         string     `json:"ID" msgpack:"ID"`
	Path       string     `json:"path" msgpack:"path"`
	LineNumber int        `json:"line_number" msgpack:"line_number"`
	Args       Attributes `json:"args" msgpack:"args"`
	Watches    []string   `json:"watches" msgpack:"watches"`
}

// WatchOutcome is the result of evaluating a watch expression, either GoodResult or ErrorResult.
type WatchOutcome interface {
	isWatchOutcome()
}

// GoodResult references the variable holding the evaluated watch value.
type GoodResult struct {
	Ref VariableID
}

func (GoodResult) isWatchOutcome() {}

// ErrorResult holds the raw error produced while evaluating a watch expression.
type ErrorResult struct {
	Message string
}

func (ErrorResult) isWatchOutcome() {}

// WatchResult pairs a watch expression with its outcome.
type WatchResult struct {
	Expression string
	Result     WatchOutcome
}

type wireWatchOutcome struct {
	GoodResult  *VariableID `json:"GoodResult,omitempty" msgpack:"GoodResult,omitempty"`
	ErrorResult *string     `json:"ErrorResult,omitempty" msgpack:"ErrorResult,omitempty"`
}

type wireWatchResult struct {
	Expression string           `json:"expression" msgpack:"expression"`
	Result     wireWatchOutcome `json:"Result" msgpack:"Result"`
}

func (w WatchResult) toWire() wireWatchResult {
	wire := wireWatchResult{Expression: w.Expression}
	switch r := w.Result.(type) {
	case GoodResult:
		ref := r.Ref
		wire.Result.GoodResult = &ref
	case ErrorResult:
		msg := r.Message
		wire.Result.ErrorResult = &msg
	}
	return wire
}

func (w *WatchResult) fromWire(wire wireWatchResult) error {
	w.Expression = wire.Expression
	if wire.Result.GoodResult != nil && wire.Result.ErrorResult != nil {
		return fmt.Errorf("%w: %q", ErrAmbiguousWatchResult, wire.Expression)
	} else if wire.Result.GoodResult != nil {
		w.Result = GoodResult{Ref: *wire.Result.GoodResult}
	} else if wire.Result.ErrorResult != nil {
		w.Result = ErrorResult{Message: *wire.Result.ErrorResult}
	} else {
		w.Result = ErrorResult{Message: NoWatchResultMessage}
	}
	return nil
}

func (w WatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.toWire())
}

func (w *WatchResult) UnmarshalJSON(data []byte) error {
	var wire wireWatchResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	return w.fromWire(wire)
}

func (w WatchResult) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(w.toWire())
}

func (w *WatchResult) DecodeMsgpack(dec *msgpack.Decoder) error {
	var wire wireWatchResult
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	return w.fromWire(wire)
}

// Attribute is a single key and value of an Attributes map.
type Attribute struct {
	Key   string
	Value any
}

// Attributes is a string keyed map which retains the order keys were received in.
type Attributes []Attribute

// Get returns the value for the key.
func (a Attributes) Get(key string) (any, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// GetString returns the display string of the value for the key.
func (a Attributes) GetString(key string) (string, bool) {
	if v, ok := a.Get(key); ok {
		return AttributeString(v), true
	}
	return "", false
}

// Keys returns the keys in order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i := range a {
		keys[i] = a[i].Key
	}
	return keys
}

// set replaces an existing value in place, otherwise appends the key.
func (a Attributes) set(key string, value any) Attributes {
	for i := range a {
		if a[i].Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attribute{Key: key, Value: value})
}

// AttributeString converts an attribute value to the string shown to users.
func AttributeString(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case string:
		return tv
	case json.Number:
		return tv.String()
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(tv)
	default:
		if b, err := json.Marshal(tv); err == nil {
			return string(b)
		}
		return fmt.Sprint(tv)
	}
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	} else if tok == nil {
		*a = nil
		return nil
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attributes must be a JSON object, found %v", tok)
	}

	result := Attributes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected attribute key token: %v", keyTok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		result = result.set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*a = result
	return nil
}

func (a Attributes) EncodeMsgpack(enc *msgpack.Encoder) error {
	if a == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeMapLen(len(a)); err != nil {
		return err
	}
	for _, attr := range a {
		if err := enc.EncodeString(attr.Key); err != nil {
			return err
		} else if err := enc.Encode(attr.Value); err != nil {
			return fmt.Errorf("attribute %q: %w", attr.Key, err)
		}
	}
	return nil
}

func (a *Attributes) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	} else if n == -1 {
		*a = nil
		return nil
	}
	result := make(Attributes, 0, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		val, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		result = result.set(key, val)
	}
	*a = result
	return nil
}

// Snapshot is one captured instant of a program's stack and variable state.
type Snapshot struct {
	ID            string        `json:"ID" msgpack:"ID"`
	Tracepoint    Tracepoint    `json:"tracepoint" msgpack:"tracepoint"`
	VarLookup     VariableTable `json:"var_lookup" msgpack:"var_lookup"`
	TsNanos       uint64        `json:"ts_nanos,omitempty" msgpack:"ts_nanos,omitempty"`
	Frames        []Frame       `json:"frames" msgpack:"frames"`
	Watches       []WatchResult `json:"watches,omitempty" msgpack:"watches,omitempty"`
	Attributes    Attributes    `json:"attributes" msgpack:"attributes"`
	DurationNanos uint64        `json:"duration_nanos,omitempty" msgpack:"duration_nanos,omitempty"`
	Resource      Attributes    `json:"resource" msgpack:"resource"`
	LogMsg        string        `json:"log_msg,omitempty" msgpack:"log_msg,omitempty"`
}
