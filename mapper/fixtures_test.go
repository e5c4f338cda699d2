package mapper_test

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/c360studio/semmap/mapper"
)

type Primitives struct {
	mapper.Identity
	Str    string
	Int    int32
	Float  float32
	Double float64
	Char   mapper.Char
	URI    *url.URL
	Flag   bool
}

type Company struct {
	mapper.Identity
	Name      string `rdf:",id"`
	Website   string `rdf:",id"`
	Employees int
}

type CompanyReordered struct {
	mapper.Identity
	Website string `rdf:",id"`
	Name    string `rdf:",id"`
}

type Person struct {
	_    struct{} `rdf:"@type=foaf:Person"`
	Name string   `rdf:"foaf:name"`
}

type Directory struct {
	mapper.Identity
	Entries map[any]any
}

type Status int

const (
	StatusActive Status = iota + 1
	StatusRetired
	StatusArchived
)

func (Status) EnumValues() []mapper.EnumValue {
	return []mapper.EnumValue{
		{Name: "Active", Value: StatusActive},
		{Name: "Retired", IRI: "http://example.org/vocab#retiredStatus", Value: StatusRetired},
		{Name: "Archived", IRI: "not a valid iri", Value: StatusArchived},
	}
}

type Account struct {
	mapper.Identity
	Status Status
}

type Node struct {
	mapper.Identity
	Label string
	Next  *Node
}

type Animal interface {
	Sound() string
}

type Dog struct {
	Name string
}

func (Dog) Sound() string { return "woof" }

type Puppy struct {
	Dog
	Age int
}

type Owner struct {
	mapper.Identity
	Pet Animal
}

type Ticket struct {
	mapper.Identity
	Ref uuid.UUID
}

type Note struct {
	mapper.Identity
	Text string `rdf:"rdfs:comment,lang=en"`
	Code string `rdf:",datatype=xsd:token"`
}

type BadDatatype struct {
	mapper.Identity
	Title string
	Bad   string `rdf:",datatype=not a valid iri"`
}

type BadPredicate struct {
	mapper.Identity
	Title string
	Bad   string `rdf:"not a valid iri"`
}

type Bag struct {
	mapper.Identity
	Numbers  []int
	Ordered  []string `rdf:",list"`
	Tags     []string
	Fixed    [2]int
	Children []*Person
}

type Measurements struct {
	mapper.Identity
	Small   int8
	Medium  int16
	Big     int64
	Count   uint32
	Ratio   *float64
	Bytes   []byte
	Seen    *bool
	Ignored string `rdf:"-"`
}

type labels struct {
	Name string
	Kind string
}

type Labelled struct {
	mapper.Identity
	labels
	Name string
}

type Level int

const (
	LevelLow Level = iota + 1
	LevelHigh
)

// EnumValues declares High with a constant of the wrong type, so any IRI
// resolving to it cannot be decoded.
func (Level) EnumValues() []mapper.EnumValue {
	return []mapper.EnumValue{
		{Name: "Low", Value: LevelLow},
		{Name: "High", IRI: "http://example.org/vocab#top", Value: "high"},
	}
}

type Gauge struct {
	mapper.Identity
	Level Level
}
