package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Major classification enums.
var (
	MajorCategories = []string{
		"philosophy", "economics", "law", "education", "literature", "history",
		"science", "engineering", "agriculture", "medicine", "management",
		"arts", "military", "interdisciplinary",
	}
	MajorDegreeLevels = []string{"associate", "bachelor", "master", "doctorate"}
)

// Major is the inverse side of the university association: Universities lists
// the ids of universities offering this major, kept in sync with
// University.Majors by the catalog service.
type Major struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	EnglishName  string               `bson:"englishName,omitempty" json:"englishName,omitempty"`
	Code         string               `bson:"code,omitempty" json:"code,omitempty"`
	Category     string               `bson:"category" json:"category"`
	Subcategory  string               `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	DegreeLevel  string               `bson:"degreeLevel" json:"degreeLevel"`
	Duration     int                  `bson:"duration" json:"duration"`
	Description  string               `bson:"description" json:"description"`
	Overview     string               `bson:"overview,omitempty" json:"overview,omitempty"`
	Curriculum   MajorCurriculum      `bson:"curriculum,omitempty" json:"curriculum,omitempty"`
	Skills       MajorSkills          `bson:"skills,omitempty" json:"skills,omitempty"`
	Career       MajorCareer          `bson:"career,omitempty" json:"career,omitempty"`
	Requirements MajorRequirements    `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Admission    MajorAdmission       `bson:"admission,omitempty" json:"admission,omitempty"`
	Universities []primitive.ObjectID `bson:"universities" json:"universities"`
	Ranking      MajorRanking         `bson:"ranking,omitempty" json:"ranking,omitempty"`
	Rating       MajorRating          `bson:"rating" json:"rating"`
	Tags         []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	IsActive     bool                 `bson:"isActive" json:"isActive"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`

	// UniversityInfos carries populated summaries on detail reads.
	UniversityInfos []UniversitySummary `bson:"-" json:"universityInfos,omitempty"`
}

type MajorCurriculum struct {
	CoreSubjects     []string `bson:"coreSubjects,omitempty" json:"coreSubjects,omitempty"`
	PracticalCourses []string `bson:"practicalCourses,omitempty" json:"practicalCourses,omitempty"`
	Electives        []string `bson:"electives,omitempty" json:"electives,omitempty"`
}

type MajorSkills struct {
	Required  []string `bson:"required,omitempty" json:"required,omitempty"`
	Preferred []string `bson:"preferred,omitempty" json:"preferred,omitempty"`
}

type MajorCareer struct {
	Directions     []CareerDirection `bson:"directions,omitempty" json:"directions,omitempty"`
	Industries     []string          `bson:"industries,omitempty" json:"industries,omitempty"`
	Positions      []string          `bson:"positions,omitempty" json:"positions,omitempty"`
	AverageSalary  MoneyRange        `bson:"averageSalary,omitempty" json:"averageSalary,omitempty"`
	EmploymentRate float64           `bson:"employmentRate,omitempty" json:"employmentRate,omitempty"`
}

type CareerDirection struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type MajorRequirements struct {
	Academic string `bson:"academic,omitempty" json:"academic,omitempty"`
	Language string `bson:"language,omitempty" json:"language,omitempty"`
	Other    string `bson:"other,omitempty" json:"other,omitempty"`
}

type MajorAdmission struct {
	CutoffScore     int      `bson:"cutoffScore,omitempty" json:"cutoffScore,omitempty"`
	Competitiveness string   `bson:"competitiveness,omitempty" json:"competitiveness,omitempty"`
	AdditionalTests []string `bson:"additionalTests,omitempty" json:"additionalTests,omitempty"`
}

type MajorRanking struct {
	National      int `bson:"national,omitempty" json:"national,omitempty"`
	International int `bson:"international,omitempty" json:"international,omitempty"`
}

type MajorRating struct {
	Overall      float64 `bson:"overall" json:"overall"`
	Difficulty   float64 `bson:"difficulty" json:"difficulty"`
	Prospects    float64 `bson:"prospects" json:"prospects"`
	Satisfaction float64 `bson:"satisfaction" json:"satisfaction"`
}

// MajorSummary is the slice embedded in populated university reads.
type MajorSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// Summary projects the fields embedded in populated reads.
func (m *Major) Summary() MajorSummary {
	return MajorSummary{ID: m.ID, Name: m.Name, Category: m.Category, Description: m.Description}
}

// HasUniversity reports whether universityID is already linked.
func (m *Major) HasUniversity(universityID primitive.ObjectID) bool {
	for _, id := range m.Universities {
		if id == universityID {
			return true
		}
	}
	return false
}
