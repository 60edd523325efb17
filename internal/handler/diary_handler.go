package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lovenest/internal/db"
	"github.com/lovenest/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type diaryPayload struct {
	Author   string `json:"author"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Mood     string `json:"mood"`
	CoverURL string `json:"cover_url"`
}

func (p diaryPayload) toInput() service.DiaryInput {
	return service.DiaryInput{
		Author:   p.Author,
		Title:    p.Title,
		Content:  p.Content,
		Mood:     p.Mood,
		CoverURL: p.CoverURL,
	}
}

// renderMarkdown 把日记正文渲染为净化过的 HTML
func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}

// ListDiaryEntries 返回日记列表 JSON
func (a *API) ListDiaryEntries(c *gin.Context) {
	entries, err := a.diary.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load diary entries")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, diaryToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// GetDiaryEntry 返回单篇日记详情
func (a *API) GetDiaryEntry(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid diary id")
		return
	}

	entry, err := a.diary.Get(id)
	if err != nil {
		handleDiaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": diaryToPayload(*entry)})
}

// CreateDiaryEntry 创建日记并入账写日记积分
func (a *API) CreateDiaryEntry(c *gin.Context) {
	var payload diaryPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	input := payload.toInput()
	input.Author = requesterName(c, payload.Author)
	if input.Author == "" {
		respondError(c, http.StatusBadRequest, "author is required")
		return
	}

	entry, err := a.diary.Create(input)
	if err != nil {
		handleDiaryError(c, err)
		return
	}

	a.award("write_diary", "Viết nhật ký mới", fmt.Sprintf("diary-%d", entry.ID), service.AchievementDailyDiary)

	c.JSON(http.StatusOK, gin.H{"entry": diaryToPayload(*entry)})
}

// UpdateDiaryEntry 更新日记，仅作者本人可操作
func (a *API) UpdateDiaryEntry(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid diary id")
		return
	}

	var payload diaryPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	entry, err := a.diary.Update(id, requesterName(c, payload.Author), payload.toInput())
	if err != nil {
		handleDiaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": diaryToPayload(*entry)})
}

// DeleteDiaryEntry 删除日记，作者比较大小写不敏感
func (a *API) DeleteDiaryEntry(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid diary id")
		return
	}

	if err := a.diary.Delete(id, requesterName(c, "")); err != nil {
		handleDiaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListDiaryComments 返回日记的评论列表
func (a *API) ListDiaryComments(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid diary id")
		return
	}

	comments, err := a.diary.Comments(id)
	if err != nil {
		handleDiaryError(c, err)
		return
	}

	items := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentToPayload(comment))
	}
	c.JSON(http.StatusOK, gin.H{"comments": items})
}

// CreateDiaryComment 追加评论并入账评论积分
func (a *API) CreateDiaryComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid diary id")
		return
	}

	var payload struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	author := requesterName(c, payload.Author)
	if author == "" {
		respondError(c, http.StatusBadRequest, "author is required")
		return
	}

	comment, err := a.diary.AddComment(id, author, payload.Content)
	if err != nil {
		handleDiaryError(c, err)
		return
	}

	a.award("send_comment", "Bình luận nhật ký", fmt.Sprintf("comment-%d", comment.ID), service.AchievementCommentKing)

	c.JSON(http.StatusOK, gin.H{"comment": commentToPayload(*comment)})
}

// DeleteDiaryComment 删除评论，仅评论作者本人可操作
func (a *API) DeleteDiaryComment(c *gin.Context) {
	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := a.diary.DeleteComment(commentID, requesterName(c, "")); err != nil {
		handleDiaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetDiaryCommentCounts 批量返回日记的评论数
func (a *API) GetDiaryCommentCounts(c *gin.Context) {
	ids := parseUintQuerySlice(c.QueryArray("ids"))
	counts, err := a.diary.CommentCounts(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to count comments")
		return
	}

	payload := make(map[string]int64, len(counts))
	for id, count := range counts {
		payload[fmt.Sprintf("%d", id)] = count
	}
	c.JSON(http.StatusOK, gin.H{"counts": payload})
}

func diaryToPayload(entry db.DiaryEntry) gin.H {
	return gin.H{
		"id":           entry.ID,
		"author":       entry.Author,
		"title":        entry.Title,
		"content":      entry.Content,
		"content_html": renderMarkdown(entry.Content),
		"mood":         entry.Mood,
		"cover_url":    entry.CoverURL,
		"created_at":   entry.CreatedAt.Format(time.RFC3339),
	}
}

func commentToPayload(comment db.DiaryComment) gin.H {
	return gin.H{
		"id":         comment.ID,
		"entry_id":   comment.EntryID,
		"author":     comment.Author,
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format(time.RFC3339),
	}
}

func handleDiaryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		respondError(c, http.StatusNotFound, "diary entry not found")
	case errors.Is(err, service.ErrCommentNotFound):
		respondError(c, http.StatusNotFound, "comment not found")
	case errors.Is(err, service.ErrNotOwner):
		respondError(c, http.StatusForbidden, "only the author can do that")
	case errors.Is(err, service.ErrEmptyContent):
		respondError(c, http.StatusBadRequest, "content is required")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
