package dispatch

import (
	"bytes"
	"encoding/json"
)

// Payload is a JSON object that keeps its fields in insertion order
type Payload struct {
	keys   []string
	values map[string]interface{}
}

// NewPayload creates an empty payload
func NewPayload() *Payload {
	return &Payload{keys: make([]string, 0), values: make(map[string]interface{})}
}

// Set adds a field. Setting an existing field replaces its value in place.
func (p *Payload) Set(key string, value interface{}) *Payload {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value of a field
func (p *Payload) Get(key string) (interface{}, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the field names in order
func (p *Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

// MarshalJSON encodes the fields in insertion order
func (p *Payload) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
