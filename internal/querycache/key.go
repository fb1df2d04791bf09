package querycache

import (
	"net/url"
	"strings"
)

// Key はキャッシュの識別子。リソース名と全パラメータで一致を判定する。
type Key struct {
	Resource string
	Params   map[string]string
	// 空なら取得しないパラメータ名（詳細取得のidなど）
	Required []string
}

func NewKey(resource string, params map[string]string, required ...string) Key {
	return Key{Resource: resource, Params: params, Required: required}
}

// Active は必須パラメータがすべて埋まっているか
func (k Key) Active() bool {
	for _, name := range k.Required {
		if strings.TrimSpace(k.Params[name]) == "" {
			return false
		}
	}
	return true
}

// String は "products?limit=20&sort=new" の形。パラメータはキー順に並べる
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	v := url.Values{}
	for name, val := range k.Params {
		v.Set(name, val)
	}
	return k.Resource + "?" + v.Encode()
}
