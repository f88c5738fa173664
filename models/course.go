package models

// Lesson is a single lesson inside a course. Lessons are owned by their
// course and identified by their number, which is unique within the course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is one ingested course document. The title is the unique,
// case-sensitive identifier across the whole catalog.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given number, or nil.
func (c *Course) Lesson(number int) *Lesson {
	for i := range c.Lessons {
		if c.Lessons[i].Number == number {
			return &c.Lessons[i]
		}
	}
	return nil
}

// Chunk is one retrieval unit produced by the chunker. Text already carries
// the course/lesson context prefix so retrieval hits are self-describing.
type Chunk struct {
	Text         string `json:"text"`
	CourseTitle  string `json:"course_title"`
	LessonNumber int    `json:"lesson_number"` // -1 when the chunk precedes any lesson
	ChunkIndex   int    `json:"chunk_index"`
}

// HasLesson reports whether the chunk belongs to a specific lesson.
func (c Chunk) HasLesson() bool { return c.LessonNumber >= 0 }

// CourseOutline is the catalog view of a course used by the outline tool.
type CourseOutline struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}
