package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fitlog/internal/auth"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"
)

type PostsResponse struct {
	Posts []*Blog `json:"posts"`
	Total int     `json:"total"`
}

type NewBlogResponse struct {
	Message string `json:"message"`
	Blog    *Blog  `json:"blog"`
}

type newBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type blogRepo interface {
	AddBlog(ctx context.Context, blog *Blog) error
	BlogClapped(ctx context.Context, id int) error
	DeleteBlog(ctx context.Context, id, authorID int) error
	All(ctx context.Context) ([]*Blog, error)
	BlogsCount(ctx context.Context) (int, error)
	GetBlogsPage(ctx context.Context, page, size int) ([]*Blog, error)
	GetBlog(ctx context.Context, id int) (*Blog, error)
}

type Handler struct {
	repo blogRepo
}

func NewBlogHandler(repo blogRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

// SetupRoutes expects the /api/v1 router.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blogs", handler.handleNewBlog).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/blogs", handler.handleAll).Methods("GET").Name("all-blogs")
	router.HandleFunc("/blogs/page/{page}/size/{size}", handler.handleGetPage).Methods("GET").Name("blogs-page")
	router.HandleFunc("/blogs/{id}", handler.handleGet).Methods("GET").Name("get-blog")
	router.HandleFunc("/blogs/{id}/clap", handler.handleBlogClapped).Methods("PATCH", "OPTIONS").Name("blog-clapped")
	router.HandleFunc("/blogs/{id}", handler.handleDeleteBlog).Methods("DELETE", "OPTIONS").Name("delete-blog")
}

func (handler *Handler) handleNewBlog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.new")
	defer span.End()

	authorID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var newBlogReq newBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&newBlogReq); err != nil {
		log.Tracef("new blog, unmarshal json params: %s", err)
		http.Error(w, "add blog failed", http.StatusBadRequest)
		return
	}

	if newBlogReq.Title == "" || newBlogReq.Content == "" {
		http.Error(w, "title and content are required", http.StatusBadRequest)
		return
	}

	newBlog := &Blog{
		Title:     newBlogReq.Title,
		Content:   newBlogReq.Content,
		Tags:      newBlogReq.Tags,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
	}

	if err := handler.repo.AddBlog(ctx, newBlog); err != nil {
		if errors.Is(err, ErrBlogTitleOrContentEmpty) {
			http.Error(w, "title and content are required", http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrAuthorNotFound) {
			http.Error(w, "author not found", http.StatusNotFound)
			return
		}
		log.Errorf("add new blog failed: %s", err)
		http.Error(w, "add new blog failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new blog %d: [%s] added", newBlog.ID, newBlog.Title)

	respJson, err := json.Marshal(NewBlogResponse{
		Message: "blog created successfully",
		Blog:    newBlog,
	})
	if err != nil {
		log.Errorf("marshal new blog: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) handleBlogClapped(w http.ResponseWriter, r *http.Request) {
	id, ok := blogIDFromPath(w, r)
	if !ok {
		return
	}

	if err := handler.repo.BlogClapped(r.Context(), id); err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			http.Error(w, ErrBlogNotFound.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("clap blog %d: %s", id, err)
		http.Error(w, "update blog failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%d", id))
}

func (handler *Handler) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	authorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, ok := blogIDFromPath(w, r)
	if !ok {
		return
	}

	if err := handler.repo.DeleteBlog(r.Context(), id, authorID); err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			http.Error(w, ErrBlogNotFound.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("delete blog %d: %s", id, err)
		http.Error(w, "error, blog not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := blogIDFromPath(w, r)
	if !ok {
		return
	}

	b, err := handler.repo.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			http.Error(w, ErrBlogNotFound.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("get blog %d: %s", id, err)
		http.Error(w, "get blog error", http.StatusInternalServerError)
		return
	}

	blogJson, err := json.Marshal(b)
	if err != nil {
		log.Errorf("marshal blog error: %s", err)
		http.Error(w, "marshal blog error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, blogJson)
}

func (handler *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	allBlogs, err := handler.repo.All(r.Context())
	if err != nil {
		log.Errorf("get all blogs error: %s", err)
		http.Error(w, "get all blogs error", http.StatusInternalServerError)
		return
	}

	allBlogsJson, err := json.Marshal(allBlogs)
	if err != nil {
		log.Errorf("marshal all blogs error: %s", err)
		http.Error(w, "marshal all blogs error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, allBlogsJson)
}

func (handler *Handler) handleGetPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	pageStr := vars["page"]
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		log.Tracef("handle get blogs page, from <page> param: %s", err)
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	sizeStr := vars["size"]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		log.Tracef("handle get blogs page, from <size> param: %s", err)
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}

	log.Tracef("get blogs - page %s size %s", pageStr, sizeStr)

	if page < 1 {
		http.Error(w, "invalid page size (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 {
		http.Error(w, "invalid size (has to be non-zero value)", http.StatusBadRequest)
		return
	}

	blogPosts, err := handler.repo.GetBlogsPage(r.Context(), page, size)
	if err != nil {
		log.Errorf("get blogs error: %s", err)
		http.Error(w, "failed to get blog posts", http.StatusInternalServerError)
		return
	}

	totalBlogsCount, err := handler.repo.BlogsCount(r.Context())
	if err != nil {
		log.Errorf("get blogs error: %s", err)
		http.Error(w, "failed to get blog posts", http.StatusInternalServerError)
		return
	}

	postsResp := PostsResponse{
		Posts: blogPosts,
		Total: totalBlogsCount,
	}

	blogPostsRespJson, err := json.Marshal(postsResp)
	if err != nil {
		log.Errorf("marshal blogs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, blogPostsRespJson, http.StatusOK)
}

func blogIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
