package stocks

import (
	"fmt"
	"strings"
)

// NewBackend picks a provider by its config name. getenv supplies API keys.
func NewBackend(name string, getenv func(string) string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "yahoo":
		return Yahoo{}, nil
	case "polygon":
		key := getenv("POLYGON_KEY")
		if key == "" {
			return nil, fmt.Errorf("provider polygon needs POLYGON_KEY")
		}
		return NewPolygon(key), nil
	case "tiingo":
		key := getenv("TIINGO_KEY")
		if key == "" {
			return nil, fmt.Errorf("provider tiingo needs TIINGO_KEY")
		}
		return NewTiingo(key), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
