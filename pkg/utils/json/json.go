// Package json routes all JSON encoding through sonic so every component
// shares one configuration.
package json

import (
	"github.com/bytedance/sonic"
)

var config = sonic.ConfigStd

func Marshal(v interface{}) ([]byte, error) {
	return config.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return config.MarshalIndent(v, prefix, indent)
}

func MarshalString(v interface{}) (string, error) {
	return config.MarshalToString(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return config.Unmarshal(data, v)
}

func Valid(data []byte) bool {
	return config.Valid(data)
}
