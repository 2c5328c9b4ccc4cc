package capability

import "encoding/json"

// JSONTable converts between JSON text and the plain Go value trees that
// script.LuaValue.ToAny/FromAny produce, grounded on lua_table_to_json /
// lua_json_to_table.
type JSONTable struct{}

func NewJSONTable() *JSONTable { return &JSONTable{} }

func (JSONTable) TableToJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONTable) JSONToTable(s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
