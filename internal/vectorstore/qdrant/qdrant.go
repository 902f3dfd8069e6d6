// Package qdrant implements the course index on top of the Qdrant REST API.
// Course metadata and content chunks live in two separate collections.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursechat/internal/domain"
	"coursechat/internal/embedding"
	"coursechat/internal/vectorstore"
)

// Index is a minimal REST client to Qdrant. It assumes cosine distance and
// creates its collections lazily on the first write, once the embedder's
// vector dimension is known.
type Index struct {
	url      string
	apiKey   string
	catalog  string
	content  string
	embedder embedding.Embedder
	client   *http.Client

	mu    sync.Mutex // serializes AddCourse so the title check and inserts are atomic
	ready bool
}

type Config struct {
	URL              string
	APIKey           string
	CollectionPrefix string
	Timeout          time.Duration
}

func NewIndex(cfg Config, embedder embedding.Embedder) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "coursechat"
	}
	return &Index{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		catalog:  prefix + "_catalog",
		content:  prefix + "_content",
		embedder: embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

func (x *Index) AddCourse(ctx context.Context, course *domain.Course, chunks []domain.CourseChunk) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	titleVec, err := x.embedder.Embed(ctx, course.Title)
	if err != nil {
		return false, err
	}
	if err := x.ensureCollections(ctx, len(titleVec)); err != nil {
		return false, err
	}

	exists, err := x.courseExists(ctx, course.Title)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	lessons := make([]map[string]any, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		lessons = append(lessons, map[string]any{
			"number": l.Number,
			"title":  l.Title,
			"link":   l.Link,
		})
	}
	catalogPoint := map[string]any{
		"id":     uuid.NewString(),
		"vector": titleVec,
		"payload": map[string]any{
			"title":      course.Title,
			"link":       course.Link,
			"instructor": course.Instructor,
			"lessons":    lessons,
		},
	}
	if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.catalog),
		map[string]any{"points": []any{catalogPoint}}); err != nil {
		return false, err
	}

	points := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		vec, err := x.embedder.Embed(ctx, c.Content)
		if err != nil {
			return false, err
		}
		payload := map[string]any{
			"content":      c.Content,
			"course_title": c.CourseTitle,
			"chunk_index":  c.ChunkIndex,
		}
		if c.LessonNumber != nil {
			payload["lesson_number"] = *c.LessonNumber
		}
		points = append(points, map[string]any{
			"id":      uuid.NewString(),
			"vector":  vec,
			"payload": payload,
		})
	}
	if len(points) > 0 {
		if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.content),
			map[string]any{"points": points}); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (x *Index) ResolveCourseTitle(ctx context.Context, name string) (string, error) {
	vec, err := x.embedder.Embed(ctx, name)
	if err != nil {
		return "", err
	}
	var resp searchResponse
	req := map[string]any{
		"vector":       vec,
		"limit":        1,
		"with_payload": true,
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, x.catalog), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Result) == 0 {
		return "", vectorstore.ErrCourseNotFound
	}
	title, _ := resp.Result[0].Payload["title"].(string)
	if title == "" {
		return "", vectorstore.ErrCourseNotFound
	}
	return title, nil
}

func (x *Index) Search(ctx context.Context, query string, f vectorstore.Filter, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       vec,
		"limit":        topK,
		"with_payload": true,
	}
	var must []map[string]any
	if f.CourseTitle != "" {
		must = append(must, map[string]any{
			"key":   "course_title",
			"match": map[string]any{"value": f.CourseTitle},
		})
	}
	if f.LessonNumber != nil {
		must = append(must, map[string]any{
			"key":   "lesson_number",
			"match": map[string]any{"value": *f.LessonNumber},
		})
	}
	if len(must) > 0 {
		req["filter"] = map[string]any{"must": must}
	}
	var resp searchResponse
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, x.content), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.CourseChunk{}
		if v, ok := r.Payload["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := r.Payload["course_title"].(string); ok {
			chunk.CourseTitle = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["lesson_number"].(float64); ok {
			n := int(v)
			chunk.LessonNumber = &n
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

func (x *Index) CourseCount(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", x.url, x.catalog),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (x *Index) CourseTitles(ctx context.Context) ([]string, error) {
	var titles []string
	var offset any
	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", x.url, x.catalog), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if t, ok := p.Payload["title"].(string); ok {
				titles = append(titles, t)
			}
		}
		if resp.Result.NextPageOffset == nil {
			return titles, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (x *Index) courseExists(ctx context.Context, title string) (bool, error) {
	req := map[string]any{
		"limit": 1,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "title", "match": map[string]any{"value": title}},
			},
		},
	}
	var resp struct {
		Result struct {
			Points []json.RawMessage `json:"points"`
		} `json:"result"`
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", x.url, x.catalog), req, &resp); err != nil {
		return false, err
	}
	return len(resp.Result.Points) > 0, nil
}

// ensureCollections creates both collections on the first write. Callers
// must hold x.mu.
func (x *Index) ensureCollections(ctx context.Context, dimension int) error {
	if x.ready {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	for _, name := range []string{x.catalog, x.content} {
		// Qdrant returns 200 OK if the collection already exists with the same schema
		if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, name), body); err != nil {
			return err
		}
	}
	x.ready = true
	return nil
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func (x *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
