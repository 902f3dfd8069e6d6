// Package memory provides an in-memory course index using brute-force
// cosine similarity. It fits local runs and tests where no external
// vector database is available.
package memory

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"coursechat/internal/domain"
	"coursechat/internal/embedding"
	"coursechat/internal/vectorstore"
)

type catalogEntry struct {
	course domain.Course
	vector []float64
}

type contentEntry struct {
	chunk  domain.CourseChunk
	vector []float64
}

// Index is an in-memory implementation of vectorstore.Index.
type Index struct {
	mu       sync.RWMutex
	embedder embedding.Embedder
	catalog  []catalogEntry
	content  []contentEntry
	dirty    bool
}

func NewIndex(embedder embedding.Embedder) *Index {
	return &Index{embedder: embedder}
}

func (x *Index) AddCourse(ctx context.Context, course *domain.Course, chunks []domain.CourseChunk) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range x.catalog {
		if e.course.Title == course.Title {
			return false, nil
		}
	}
	x.catalog = append(x.catalog, catalogEntry{course: *course})
	for _, c := range chunks {
		x.content = append(x.content, contentEntry{chunk: c})
	}
	x.dirty = true
	return true, nil
}

func (x *Index) ResolveCourseTitle(ctx context.Context, name string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.ensureIndexed(ctx); err != nil {
		return "", err
	}
	if len(x.catalog) == 0 {
		return "", vectorstore.ErrCourseNotFound
	}
	qv, err := x.embedder.Embed(ctx, name)
	if err != nil {
		return "", err
	}
	best, bestScore := -1, 0.0
	for i := range x.catalog {
		score := dot(x.catalog[i].vector, qv)
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore > 0 {
		return x.catalog[best].course.Title, nil
	}
	// Abbreviations like "intro to ml" share no tokens with the stored
	// title, so the vector space cannot see them. Fall back to lexical
	// prefix and initialism matching.
	for i := range x.catalog {
		if lexicalTitleMatch(name, x.catalog[i].course.Title) {
			return x.catalog[i].course.Title, nil
		}
	}
	return "", vectorstore.ErrCourseNotFound
}

var resolveStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "for": {}, "in": {}, "of": {}, "the": {}, "to": {},
}

// lexicalTitleMatch reports whether every significant token of name matches
// the title: by equality, by prefixing a title token, or as an initialism
// of consecutive title tokens ("ml" for "machine learning").
func lexicalTitleMatch(name, title string) bool {
	qTokens := splitTokens(name)
	tTokens := splitTokens(title)
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return false
	}
	matched := 0
	for _, q := range qTokens {
		if _, ok := resolveStopwords[q]; ok {
			continue
		}
		if !tokenMatches(q, tTokens) {
			return false
		}
		matched++
	}
	return matched > 0
}

func tokenMatches(q string, tTokens []string) bool {
	for _, t := range tTokens {
		if t == q || (len(q) >= 4 && strings.HasPrefix(t, q)) {
			return true
		}
	}
	// initialism over consecutive title tokens
	for i := 0; i+len(q) <= len(tTokens); i++ {
		ok := true
		for j := 0; j < len(q); j++ {
			if _, skip := resolveStopwords[tTokens[i+j]]; skip {
				ok = false
				break
			}
			if tTokens[i+j][0] != q[j] {
				ok = false
				break
			}
		}
		if ok && len(q) >= 2 {
			return true
		}
	}
	return false
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (x *Index) Search(ctx context.Context, query string, f vectorstore.Filter, topK int) ([]domain.SearchResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.content) == 0 {
		return nil, nil
	}
	if err := x.ensureIndexed(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	qv, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var idxs []int
	var scores []float64
	for i := range x.content {
		c := x.content[i].chunk
		if f.CourseTitle != "" && c.CourseTitle != f.CourseTitle {
			continue
		}
		if f.LessonNumber != nil && (c.LessonNumber == nil || *c.LessonNumber != *f.LessonNumber) {
			continue
		}
		idxs = append(idxs, i)
		scores = append(scores, dot(x.content[i].vector, qv))
	}
	order := argsortDesc(scores)
	if topK > len(order) {
		topK = len(order)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[order[i]]
		results = append(results, domain.SearchResult{Chunk: x.content[j].chunk, Score: scores[order[i]]})
	}
	return results, nil
}

func (x *Index) CourseCount(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.catalog), nil
}

func (x *Index) CourseTitles(ctx context.Context) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	titles := make([]string, 0, len(x.catalog))
	for _, e := range x.catalog {
		titles = append(titles, e.course.Title)
	}
	return titles, nil
}

// ensureIndexed rebuilds all vectors after a mutation. Corpus-dependent
// embedders (TF-IDF) invalidate earlier vectors on Prepare, so everything
// is re-embedded in one pass. Callers must hold the write lock.
func (x *Index) ensureIndexed(ctx context.Context) error {
	if !x.dirty {
		return nil
	}
	corpus := make([]string, 0, len(x.catalog)+len(x.content))
	for _, e := range x.catalog {
		corpus = append(corpus, e.course.Title)
	}
	for _, e := range x.content {
		corpus = append(corpus, e.chunk.Content)
	}
	if err := x.embedder.Prepare(corpus); err != nil {
		return err
	}
	for i := range x.catalog {
		v, err := x.embedder.Embed(ctx, x.catalog[i].course.Title)
		if err != nil {
			return err
		}
		x.catalog[i].vector = v
	}
	for i := range x.content {
		v, err := x.embedder.Embed(ctx, x.content[i].chunk.Content)
		if err != nil {
			return err
		}
		x.content[i].vector = v
	}
	x.dirty = false
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
