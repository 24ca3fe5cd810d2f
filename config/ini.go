package config

import (
	"github.com/ochinchina/go-ini"
)

// iniReader reads supervisor style INI files:
//
//	[OrderService]
//	ip=127.0.0.1
//	port=14000
type iniReader struct{}

func (r iniReader) Read(path string) (map[string]map[string]string, error) {
	myini := ini.NewIni()
	myini.LoadFile(path)

	result := make(map[string]map[string]string)
	for _, section := range myini.Sections() {
		kv := make(map[string]string)
		for _, key := range section.Keys() {
			kv[key.Name()] = key.ValueWithDefault("")
		}
		result[section.Name] = kv
	}
	return result, nil
}
