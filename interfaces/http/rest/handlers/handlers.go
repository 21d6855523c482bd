// Package handlers contains the REST request handlers.
package handlers

import (
	"net/http"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/pkg/common"
	"loupe-backend/pkg/errors"
	"loupe-backend/pkg/utils"
)

// maxBodyBytes bounds request bodies; summaries can carry long content.
const maxBodyBytes = 1 << 20

// respondWithError maps application errors to HTTP responses.
func respondWithError(w http.ResponseWriter, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		code := appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
		common.RespondError(w, appErr.HTTPStatus, code, appErr.Message)
		return
	}
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

// View DTOs shared across handlers.

type projectView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type chatEntryView struct {
	NodeID    string `json:"nodeId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

type nodeView struct {
	ID                string                  `json:"id"`
	ProjectID         string                  `json:"projectId"`
	ParentID          *string                 `json:"parentId,omitempty"`
	Query             string                  `json:"query"`
	Answer            string                  `json:"answer"`
	Results           []entities.SearchResult `json:"results"`
	Images            []entities.ImageResult  `json:"images"`
	FollowupQuestions []string                `json:"followupQuestions"`
	RelatedConcepts   []string                `json:"relatedConcepts"`
	EmbeddingStatus   string                  `json:"embeddingStatus"`
	CreatedAt         string                  `json:"createdAt"`
}

type similarSourceView struct {
	NodeID      string  `json:"nodeId"`
	Query       string  `json:"query"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Similarity  float64 `json:"similarity"`
}

type similarGuideView struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type similarAnswerView struct {
	NodeID        string  `json:"nodeId"`
	Query         string  `json:"query"`
	ProjectID     string  `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	AnswerSnippet string  `json:"answerSnippet"`
	Similarity    float64 `json:"similarity"`
}

func toProjectView(p *entities.Project) projectView {
	return projectView{
		ID:        p.ID().String(),
		Name:      p.Name(),
		CreatedAt: utils.FormatRFC3339(p.CreatedAt()),
		UpdatedAt: utils.FormatRFC3339(p.UpdatedAt()),
	}
}

func toChatEntryView(e entities.ChatEntry) chatEntryView {
	return chatEntryView{
		NodeID:    e.NodeID.String(),
		Question:  e.Question,
		Answer:    e.Answer,
		Timestamp: utils.FormatRFC3339(e.Timestamp),
	}
}

func toNodeView(n *entities.Node) nodeView {
	view := nodeView{
		ID:                n.ID().String(),
		ProjectID:         n.ProjectID().String(),
		Query:             n.Query(),
		Answer:            n.Answer(),
		Results:           emptyIfNil(n.Results()),
		Images:            emptyIfNil(n.Images()),
		FollowupQuestions: emptyIfNil(n.FollowupQuestions()),
		RelatedConcepts:   emptyIfNil(n.RelatedConcepts()),
		EmbeddingStatus:   string(n.EmbeddingStatus()),
		CreatedAt:         utils.FormatRFC3339(n.CreatedAt()),
	}
	if n.ParentID() != nil {
		s := n.ParentID().String()
		view.ParentID = &s
	}
	return view
}

func toSimilarSourceViews(matches []ports.SimilarSource) []similarSourceView {
	views := make([]similarSourceView, 0, len(matches))
	for _, m := range matches {
		views = append(views, similarSourceView{
			NodeID:     m.NodeID.String(),
			Query:      m.Query,
			Title:      m.SourceTitle,
			URL:        m.SourceURL,
			Similarity: m.Similarity,
		})
	}
	return views
}

func toSimilarGuideViews(matches []ports.SimilarGuide) []similarGuideView {
	views := make([]similarGuideView, 0, len(matches))
	for _, m := range matches {
		views = append(views, similarGuideView{
			Title:      m.Title,
			URL:        m.URL,
			Content:    m.Content,
			Similarity: m.Similarity,
		})
	}
	return views
}

func toSimilarAnswerViews(matches []ports.SimilarAnswer) []similarAnswerView {
	views := make([]similarAnswerView, 0, len(matches))
	for _, m := range matches {
		views = append(views, similarAnswerView{
			NodeID:        m.NodeID.String(),
			Query:         m.Query,
			ProjectID:     m.ProjectID.String(),
			ProjectName:   m.ProjectName,
			AnswerSnippet: m.AnswerSnippet,
			Similarity:    m.Similarity,
		})
	}
	return views
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
