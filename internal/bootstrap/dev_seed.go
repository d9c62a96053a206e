package bootstrap

import (
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/utils"
)

const (
	DevCourseName = "CHBE241"
	DevUserID     = "student-1"
)

var devObjectives = []string{
	"State the first and second laws of thermodynamics",
	"Compute entropy changes for ideal-gas processes",
	"Apply energy balances to open systems",
}

// DevCourse is the sample course; its third week is still unpublished
func DevCourse() store.Course {
	return store.Course{
		ID:   "dev-chbe241",
		Name: DevCourseName,
		Items: []store.CourseItem{
			{ID: "dev-week-1", Title: "Week 1: Energy Balances", Published: true},
			{ID: "dev-week-2", Title: "Week 2: Entropy", Published: true},
			{ID: "dev-week-3", Title: "Week 3: Power Cycles", Published: false},
		},
	}
}

func DevObjectives() []string {
	return append([]string(nil), devObjectives...)
}

// SeedDevCourse loads the sample course used by developer mode
func SeedDevCourse(docs *memory.DocumentStore) {
	docs.SeedCourse(DevCourse(), DevObjectives())
	docs.Enroll(store.Enrollment{UserID: DevUserID, CourseName: DevCourseName, Role: "student"})
}

const (
	devChunkSize    = 240
	devChunkOverlap = 40
)

var devMaterial = []struct {
	item string
	body string
}{
	{"Week 1: Energy Balances", `An energy balance on an open system accounts for heat, shaft work and the enthalpy carried by every inlet and outlet stream. At steady state the accumulation term vanishes, so the heat added minus the shaft work equals the change in enthalpy flow plus any change in kinetic and potential energy. Choose a reference state for every species before computing enthalpies and keep it consistent across the balance.`},
	{"Week 2: Entropy", `Entropy is a state function. For a reversible process the entropy change equals the heat transferred divided by the absolute temperature, integrated along the path. The second law states that the entropy of an isolated system never decreases, which limits the efficiency of any heat engine. For an ideal gas the entropy change depends on the temperature ratio and the pressure ratio between the end states.`},
	{"Week 3: Power Cycles", `The Rankine cycle converts heat into work using water as the working fluid through a pump, boiler, turbine and condenser. Raising the boiler pressure or superheating the steam increases the thermal efficiency.`},
}

// DevCourseChunks is the retrievable material for the sample course
func DevCourseChunks() []store.RetrievedChunk {
	var chunks []store.RetrievedChunk
	for _, m := range devMaterial {
		for _, body := range utils.SplitText(m.body, devChunkSize, devChunkOverlap) {
			chunks = append(chunks, store.RetrievedChunk{
				Content: body,
				Metadata: store.ChunkMetadata{
					CourseName:         DevCourseName,
					ItemTitle:          m.item,
					TopicOrWeekTitle:   m.item,
					LearningObjectives: devObjectives[:1],
				},
			})
		}
	}
	return chunks
}
