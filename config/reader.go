package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// sectionReader turns a configuration file into section -> key -> raw value
type sectionReader interface {
	Read(path string) (map[string]map[string]string, error)
}

func readerFor(path string) sectionReader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".conf":
		return iniReader{}
	case ".yaml", ".yml":
		return yamlReader{}
	default:
		return jsonReader{}
	}
}

// jsonReader reads documents shaped like {"OrderService": {"ip": "127.0.0.1", "port": 14000}}
type jsonReader struct{}

func (r jsonReader) Read(path string) (map[string]map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return toSections(doc)
}

type yamlReader struct{}

func (r yamlReader) Read(path string) (map[string]map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return toSections(doc)
}

// flattens the two level document of the JSON and YAML formats. Top level
// values that are not objects are ignored, like unknown INI sections. Keys
// holding nested objects are dropped, so an entry that needs one reports it
// as missing.
func toSections(doc map[string]interface{}) (map[string]map[string]string, error) {
	result := make(map[string]map[string]string)
	for name, v := range doc {
		obj, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		kv := make(map[string]string)
		for key, value := range obj {
			s, ok := scalarString(value)
			if !ok {
				log.WithFields(log.Fields{"section": name, "key": key}).Debug("ignore nested config value")
				continue
			}
			kv[key] = s
		}
		result[name] = kv
	}
	return result, nil
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := scalarString(item)
			if !ok {
				return "", false
			}
			items = append(items, s)
		}
		return strings.Join(items, ","), true
	default:
		return "", false
	}
}
