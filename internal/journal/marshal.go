package journal

import (
	"encoding/json"
	"fmt"
	"strings"

	"posy/internal/canon"
	"posy/internal/stem"
)

// marshalAllocation converts a count vector to canonical JSON TEXT for
// storage, keyed by species letter with empty lanes omitted. Uses RFC 8785
// canonical JSON so identical allocations store as identical bytes.
func marshalAllocation(v *stem.Vector) (string, error) {
	data, err := canon.Marshal(allocationDoc(v))
	if err != nil {
		return "", fmt.Errorf("marshal allocation: %w", err)
	}
	return string(data), nil
}

// unmarshalAllocation parses canonical JSON TEXT back to a count vector.
func unmarshalAllocation(data string) (stem.Vector, error) {
	var v stem.Vector
	if data == "" || data == "{}" {
		return v, nil
	}

	var doc map[string]uint16
	dec := json.NewDecoder(strings.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return v, fmt.Errorf("unmarshal allocation: %w", err)
	}
	for key, n := range doc {
		sp, err := stem.ParseSpeciesText(key)
		if err != nil {
			return stem.Vector{}, fmt.Errorf("unmarshal allocation: %w", err)
		}
		v[sp] = n
	}
	return v, nil
}

// marshalStock converts per-size seed stock to canonical JSON TEXT,
// keyed by size letter.
func marshalStock(seed stem.SizeMap[stem.Vector]) (string, error) {
	doc := make(map[string]any, stem.SizeCount)
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		doc[z.String()] = allocationDoc(&seed[z])
	}
	data, err := canon.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal stock: %w", err)
	}
	return string(data), nil
}

// unmarshalStock parses canonical JSON TEXT back to per-size seed stock.
func unmarshalStock(data string) (stem.SizeMap[stem.Vector], error) {
	var seed stem.SizeMap[stem.Vector]
	if data == "" || data == "{}" {
		return seed, nil
	}

	var doc map[string]map[string]uint16
	dec := json.NewDecoder(strings.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return seed, fmt.Errorf("unmarshal stock: %w", err)
	}
	for sizeKey, counts := range doc {
		z, err := stem.ParseSizeText(sizeKey)
		if err != nil {
			return stem.SizeMap[stem.Vector]{}, fmt.Errorf("unmarshal stock: %w", err)
		}
		for key, n := range counts {
			sp, err := stem.ParseSpeciesText(key)
			if err != nil {
				return stem.SizeMap[stem.Vector]{}, fmt.Errorf("unmarshal stock: %w", err)
			}
			seed[z][sp] = n
		}
	}
	return seed, nil
}
