package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/course-rag/models"
)

// ParseError reports a document whose metadata header could not be parsed.
// Ingestion of that document aborts; other documents continue.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "parse course document: " + e.Reason }

var (
	lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]+(?:\s|$)|[^.!?]+$`)
)

// Chunker splits raw course documents into a Course skeleton and overlapping
// sentence-respecting content chunks. It is a pure transform; decoding of
// non-text formats happens before the text reaches Process.
type Chunker struct {
	chunkSize int // target window size in characters
	overlap   int // characters shared between consecutive windows
}

// New validates the window configuration. Overlap must stay strictly below
// the window size or consecutive windows would never advance.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// segment is a run of body text that belongs to one lesson (or to the
// pre-lesson intro). Chunks never cross segment boundaries.
type segment struct {
	lessonNumber int // -1 for intro text before the first lesson
	lines        []string
}

// Process parses the metadata header (course title, optional link and
// instructor, "Lesson N: Title" headers with optional "Lesson Link:" lines)
// and windows the remaining body into chunks. Chunk indexes are strictly
// increasing across the whole document.
func (c *Chunker) Process(raw string) (models.Course, []models.Chunk, error) {
	course, segments, err := parseDocument(raw)
	if err != nil {
		return models.Course{}, nil, err
	}

	var chunks []models.Chunk
	index := 0
	for _, seg := range segments {
		body := strings.TrimSpace(strings.Join(seg.lines, "\n"))
		if body == "" {
			continue
		}
		for _, window := range c.splitWindows(body) {
			text := fmt.Sprintf("Course %s content: %s", course.Title, window)
			if seg.lessonNumber >= 0 {
				text = fmt.Sprintf("Course %s Lesson %d content: %s", course.Title, seg.lessonNumber, window)
			}
			chunks = append(chunks, models.Chunk{
				Text:         text,
				CourseTitle:  course.Title,
				LessonNumber: seg.lessonNumber,
				ChunkIndex:   index,
			})
			index++
		}
	}

	return course, chunks, nil
}

func parseDocument(raw string) (models.Course, []segment, error) {
	course := models.Course{}
	segments := []segment{{lessonNumber: -1}}
	current := &segments[0]
	seenLessons := map[int]bool{}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Course Title:"):
			if course.Title == "" {
				course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
			}
		case strings.HasPrefix(trimmed, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
		case strings.HasPrefix(trimmed, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
		case strings.HasPrefix(trimmed, "Lesson Link:"):
			if n := len(course.Lessons); n > 0 && current.lessonNumber == course.Lessons[n-1].Number {
				course.Lessons[n-1].Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			}
		default:
			if m := lessonHeaderRe.FindStringSubmatch(trimmed); m != nil {
				number, _ := strconv.Atoi(m[1])
				if !seenLessons[number] {
					seenLessons[number] = true
					course.Lessons = append(course.Lessons, models.Lesson{
						Number: number,
						Title:  strings.TrimSpace(m[2]),
					})
					segments = append(segments, segment{lessonNumber: number})
					current = &segments[len(segments)-1]
					continue
				}
			}
			if trimmed != "" && course.Title == "" && current.lessonNumber == -1 {
				// First free-form line doubles as the title when no
				// "Course Title:" header is present.
				course.Title = trimmed
				continue
			}
			current.lines = append(current.lines, line)
		}
	}

	if course.Title == "" {
		return models.Course{}, nil, &ParseError{Reason: "no course title line"}
	}
	return course, segments, nil
}

// splitWindows packs whole sentences into windows close to chunkSize
// characters, then backs up whole sentences so consecutive windows share
// roughly overlap characters. Snapping to sentence boundaries means the
// shared span is approximate, never less than one sentence when overlap > 0.
func (c *Chunker) splitWindows(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var windows []string
	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			n := len(sentences[j])
			if j > i {
				n++ // joining space
			}
			if size+n > c.chunkSize && j > i {
				break
			}
			size += n
			j++
		}
		windows = append(windows, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		next := j
		shared := 0
		for next > i+1 && shared < c.overlap {
			next--
			shared += len(sentences[next]) + 1
		}
		i = next
	}
	return windows
}

func splitSentences(text string) []string {
	flat := strings.Join(strings.Fields(text), " ")
	raw := sentenceRe.FindAllString(flat, -1)
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
