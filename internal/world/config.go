package world

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"lost-and-found/server/internal/geom"
)

const (
	// DefaultDogSpeed applies when the document sets no defaultDogSpeed.
	DefaultDogSpeed = 1.0
	// DefaultBagCapacity applies when the document sets no defaultBagCapacity.
	DefaultBagCapacity = 3
	// DefaultRetirementTime applies when the document sets no dogRetirementTime.
	DefaultRetirementTime = 60 * time.Second

	defaultLootValue = 10.0
)

// Document mirrors the world configuration file. It doubles as the wire
// shape served back by the map endpoints, so the field tags match the
// file format exactly.
type Document struct {
	DefaultDogSpeed    *float64           `json:"defaultDogSpeed,omitempty"`
	DefaultBagCapacity *int               `json:"defaultBagCapacity,omitempty"`
	DogRetirementTime  *float64           `json:"dogRetirementTime,omitempty"`
	LootGenerator      *GeneratorDocument `json:"lootGeneratorConfig,omitempty"`
	Maps               []MapDocument      `json:"maps"`
}

// GeneratorDocument is the lootGeneratorConfig block. The fields are
// parsed and carried but the refill policy does not consume them.
type GeneratorDocument struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type MapDocument struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	DogSpeed    *float64           `json:"dogSpeed,omitempty"`
	BagCapacity *int               `json:"bagCapacity,omitempty"`
	Roads       []RoadDocument     `json:"roads"`
	Buildings   []BuildingDocument `json:"buildings,omitempty"`
	Offices     []OfficeDocument   `json:"offices,omitempty"`
	LootTypes   []json.RawMessage  `json:"lootTypes,omitempty"`
}

// RoadDocument carries either x1 for a horizontal road or y1 for a
// vertical one. When both are present x1 wins.
type RoadDocument struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type BuildingDocument struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type OfficeDocument struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// LoadFile reads and parses a world document from disk.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world config: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("world config %s: %w", path, err)
	}
	return w, nil
}

// Parse decodes a world document and builds the static model.
func Parse(data []byte) (*World, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode world document: %w", err)
	}
	return doc.Build()
}

// Build resolves defaults and validates every map in the document.
func (doc Document) Build() (*World, error) {
	speed := DefaultDogSpeed
	if doc.DefaultDogSpeed != nil {
		speed = *doc.DefaultDogSpeed
	}
	if speed <= 0 {
		return nil, fmt.Errorf("defaultDogSpeed %v is not positive", speed)
	}
	capacity := DefaultBagCapacity
	if doc.DefaultBagCapacity != nil {
		capacity = *doc.DefaultBagCapacity
	}
	if capacity < 0 {
		return nil, fmt.Errorf("defaultBagCapacity %d is negative", capacity)
	}
	retireAfter := DefaultRetirementTime
	if doc.DogRetirementTime != nil {
		if *doc.DogRetirementTime < 0 {
			return nil, fmt.Errorf("dogRetirementTime %v is negative", *doc.DogRetirementTime)
		}
		retireAfter = time.Duration(*doc.DogRetirementTime * float64(time.Second))
	}
	var lootCfg LootGeneratorConfig
	if doc.LootGenerator != nil {
		lootCfg = LootGeneratorConfig{
			Period:      doc.LootGenerator.Period,
			Probability: doc.LootGenerator.Probability,
		}
	}

	maps := make([]*Map, 0, len(doc.Maps))
	for _, md := range doc.Maps {
		m, err := md.build(speed, capacity)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return NewWorld(maps, retireAfter, lootCfg)
}

func (md MapDocument) build(defaultSpeed float64, defaultCapacity int) (*Map, error) {
	if md.ID == "" {
		return nil, fmt.Errorf("map %q: missing id", md.Name)
	}
	if md.Name == "" {
		return nil, fmt.Errorf("map %q: missing name", md.ID)
	}
	speed := defaultSpeed
	if md.DogSpeed != nil {
		speed = *md.DogSpeed
	}
	capacity := defaultCapacity
	if md.BagCapacity != nil {
		capacity = *md.BagCapacity
	}

	roads := make([]Road, 0, len(md.Roads))
	for i, rd := range md.Roads {
		road, err := rd.build()
		if err != nil {
			return nil, fmt.Errorf("map %q: road %d: %w", md.ID, i, err)
		}
		roads = append(roads, road)
	}

	buildings := make([]Building, 0, len(md.Buildings))
	for _, bd := range md.Buildings {
		buildings = append(buildings, Building{Bounds: geom.Rectangle{
			Position: geom.Point{X: bd.X, Y: bd.Y},
			Size:     geom.Size{Width: bd.W, Height: bd.H},
		}})
	}

	offices := make([]Office, 0, len(md.Offices))
	for i, od := range md.Offices {
		if od.ID == "" {
			return nil, fmt.Errorf("map %q: office %d: missing id", md.ID, i)
		}
		offices = append(offices, Office{
			ID:       OfficeID(od.ID),
			Position: geom.Point{X: od.X, Y: od.Y},
			Offset:   geom.Offset{Dx: od.OffsetX, Dy: od.OffsetY},
		})
	}

	lootTypes := make([]LootType, 0, len(md.LootTypes))
	for i, raw := range md.LootTypes {
		var entry struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("map %q: lootTypes entry %d: %w", md.ID, i, err)
		}
		value := defaultLootValue
		if entry.Value != nil {
			value = *entry.Value
		}
		lootTypes = append(lootTypes, LootType{Value: value, Raw: raw})
	}

	return NewMap(MapID(md.ID), md.Name, speed, capacity, roads, buildings, offices, lootTypes)
}

func (rd RoadDocument) build() (Road, error) {
	start := geom.Point{X: rd.X0, Y: rd.Y0}
	switch {
	case rd.X1 != nil:
		return NewHorizontalRoad(start, *rd.X1), nil
	case rd.Y1 != nil:
		return NewVerticalRoad(start, *rd.Y1), nil
	default:
		return Road{}, fmt.Errorf("missing x1 or y1")
	}
}

// Document rebuilds the wire form of a map for the map endpoints.
func (m *Map) Document() MapDocument {
	doc := MapDocument{
		ID:   string(m.id),
		Name: m.name,
	}
	doc.Roads = make([]RoadDocument, 0, len(m.roads))
	for _, road := range m.roads {
		rd := RoadDocument{X0: road.start.X, Y0: road.start.Y}
		if road.IsHorizontal() {
			endX := road.end.X
			rd.X1 = &endX
		} else {
			endY := road.end.Y
			rd.Y1 = &endY
		}
		doc.Roads = append(doc.Roads, rd)
	}
	doc.Buildings = make([]BuildingDocument, 0, len(m.buildings))
	for _, b := range m.buildings {
		doc.Buildings = append(doc.Buildings, BuildingDocument{
			X: b.Bounds.Position.X,
			Y: b.Bounds.Position.Y,
			W: b.Bounds.Size.Width,
			H: b.Bounds.Size.Height,
		})
	}
	doc.Offices = make([]OfficeDocument, 0, len(m.offices))
	for _, o := range m.offices {
		doc.Offices = append(doc.Offices, OfficeDocument{
			ID:      string(o.ID),
			X:       o.Position.X,
			Y:       o.Position.Y,
			OffsetX: o.Offset.Dx,
			OffsetY: o.Offset.Dy,
		})
	}
	doc.LootTypes = make([]json.RawMessage, 0, len(m.lootTypes))
	for _, lt := range m.lootTypes {
		doc.LootTypes = append(doc.LootTypes, lt.Raw)
	}
	return doc
}
