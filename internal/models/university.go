package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// University classification enums.
var (
	UniversityTypes = []string{
		"comprehensive", "science-technology", "normal", "medical", "finance",
		"agriculture", "arts", "language", "law", "sports",
	}
	UniversityLevels = []string{"project-985", "project-211", "double-first-class", "undergraduate", "vocational"}
)

// University is a reference-catalog record. Majors holds the ids of majors
// offered here; each referenced Major keeps the inverse id in its
// Universities list and the two sides are maintained together by the catalog
// service (the store does not cascade).
type University struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	EnglishName     string               `bson:"englishName,omitempty" json:"englishName,omitempty"`
	Logo            string               `bson:"logo,omitempty" json:"logo,omitempty"`
	Images          []string             `bson:"images,omitempty" json:"images,omitempty"`
	Description     string               `bson:"description" json:"description"`
	Location        UniversityLocation   `bson:"location" json:"location"`
	Type            string               `bson:"type" json:"type"`
	Level           string               `bson:"level" json:"level"`
	EstablishedYear int                  `bson:"establishedYear,omitempty" json:"establishedYear,omitempty"`
	Website         string               `bson:"website,omitempty" json:"website,omitempty"`
	PhoneNumber     string               `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Email           string               `bson:"email,omitempty" json:"email,omitempty"`
	Stats           UniversityStats      `bson:"stats" json:"stats"`
	Tuition         UniversityTuition    `bson:"tuition,omitempty" json:"tuition,omitempty"`
	Ranking         UniversityRanking    `bson:"ranking,omitempty" json:"ranking,omitempty"`
	Rating          UniversityRating     `bson:"rating" json:"rating"`
	Facilities      map[string]bool      `bson:"facilities,omitempty" json:"facilities,omitempty"`
	Transportation  map[string]bool      `bson:"transportation,omitempty" json:"transportation,omitempty"`
	Majors          []primitive.ObjectID `bson:"majors" json:"majors"`
	IsActive        bool                 `bson:"isActive" json:"isActive"`
	CreatedBy       primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`

	// MajorInfos carries populated major summaries on detail reads.
	MajorInfos []MajorSummary `bson:"-" json:"majorInfos,omitempty"`
}

type UniversityLocation struct {
	Province    string       `bson:"province" json:"province"`
	City        string       `bson:"city" json:"city"`
	District    string       `bson:"district,omitempty" json:"district,omitempty"`
	Address     string       `bson:"address,omitempty" json:"address,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Coordinates struct {
	Longitude float64 `bson:"longitude" json:"longitude"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
}

type UniversityStats struct {
	StudentCount int `bson:"studentCount" json:"studentCount"`
	FacultyCount int `bson:"facultyCount" json:"facultyCount"`
	CampusArea   int `bson:"campusArea" json:"campusArea"`
}

type UniversityTuition struct {
	Undergraduate MoneyRange `bson:"undergraduate,omitempty" json:"undergraduate,omitempty"`
	Graduate      MoneyRange `bson:"graduate,omitempty" json:"graduate,omitempty"`
}

type MoneyRange struct {
	Min float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max float64 `bson:"max,omitempty" json:"max,omitempty"`
}

type UniversityRanking struct {
	National int `bson:"national,omitempty" json:"national,omitempty"`
	Regional int `bson:"regional,omitempty" json:"regional,omitempty"`
	Global   int `bson:"global,omitempty" json:"global,omitempty"`
}

type UniversityRating struct {
	Overall    float64 `bson:"overall" json:"overall"`
	Teaching   float64 `bson:"teaching" json:"teaching"`
	Research   float64 `bson:"research" json:"research"`
	Employment float64 `bson:"employment" json:"employment"`
	Campus     float64 `bson:"campus" json:"campus"`
}

// UniversitySummary is the slice embedded in populated post and major reads.
type UniversitySummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Logo     string             `bson:"logo,omitempty" json:"logo,omitempty"`
	Province string             `bson:"province,omitempty" json:"province,omitempty"`
	City     string             `bson:"city,omitempty" json:"city,omitempty"`
}

// Summary projects the fields embedded in populated reads.
func (u *University) Summary() UniversitySummary {
	return UniversitySummary{
		ID:       u.ID,
		Name:     u.Name,
		Logo:     u.Logo,
		Province: u.Location.Province,
		City:     u.Location.City,
	}
}

// HasMajor reports whether majorID is already linked.
func (u *University) HasMajor(majorID primitive.ObjectID) bool {
	for _, id := range u.Majors {
		if id == majorID {
			return true
		}
	}
	return false
}
