package billing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type staticSource struct {
	plans map[string]Plan
}

// NewStaticSource returns a CatalogSource over a fixed plan list. Panics
// when called without plans so the service never starts with an empty
// catalog by accident.
func NewStaticSource(plans ...Plan) CatalogSource {
	if len(plans) == 0 {
		panic("billing: at least one plan is required")
	}
	byPrice := make(map[string]Plan, len(plans))
	for _, p := range plans {
		byPrice[p.PriceID] = p
	}
	return &staticSource{plans: byPrice}
}

func (s *staticSource) Load(ctx context.Context) (map[string]Plan, error) {
	out := make(map[string]Plan, len(s.plans))
	for id, p := range s.plans {
		out[id] = p
	}
	return out, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a CatalogSource reading a YAML plan list:
//
//	plans:
//	  - price_id: price_pro
//	    name: Professional
//	    credits: 50000
//	    price: {amount: 4900, currency: USD}
//	    interval: monthly
//	    public: true
func NewFileSource(path string) CatalogSource {
	return &fileSource{path: path}
}

func (s *fileSource) Load(ctx context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog %s: %w", s.path, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog %s: %w", s.path, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.New("plan catalog file contains no plans")
	}

	out := make(map[string]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		if p.PriceID == "" {
			return nil, fmt.Errorf("plan %q is missing price_id", p.Name)
		}
		out[p.PriceID] = p
	}
	return out, nil
}
