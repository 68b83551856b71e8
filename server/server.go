package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"microblog/monitoring/middleware"
	"microblog/storage"
	"microblog/storage/models"
	"microblog/utils"
)

type Server struct {
	storage      *storage.Manager
	postsPerPage int
}

func NewServer(storageManager *storage.Manager, postsPerPage int) *Server {
	return &Server{
		storage:      storageManager,
		postsPerPage: postsPerPage,
	}
}

func (s *Server) Run(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", s.createUser)
	mux.HandleFunc("/users/", s.getUser)
	mux.HandleFunc("/posts", s.createPost)
	mux.HandleFunc("/posts/", s.deletePost)
	mux.HandleFunc("/follow", s.follow)
	mux.HandleFunc("/unfollow", s.unfollow)
	mux.HandleFunc("/timeline", s.getTimeline)
	mux.HandleFunc("/search", s.search)
	mux.HandleFunc("/reindex", s.reindex)
	mux.Handle("/metrics", promhttp.Handler())

	err := http.ListenAndServe(
		fmt.Sprintf(":%d", port),
		middleware.NewServerMiddleware(mux),
	)
	if errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("server closed\n")
	} else if err != nil {
		fmt.Printf("error starting server: %s\n", err)
		os.Exit(1)
	}
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		AboutMe  string `json:"about_me"`
	}
	if err := decodeJson(r, &payload); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := models.User{
		Username: payload.Username,
		Email:    payload.Email,
		AboutMe:  payload.AboutMe,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		sendError(w, http.StatusBadRequest, "invalid password")
		return
	}
	if err := s.storage.CreateUser(r.Context(), &user); err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(utils.ToJson(user))
}

// getUser serves /users/{username} (profile with counters) and
// /users/{username}/posts (the user's own posts, paginated).
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/users/")
	username, rest, _ := strings.Cut(path, "/")

	user, err := s.storage.UserByUsername(r.Context(), username)
	if err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch rest {
	case "":
		stats, err := s.storage.UserStats(r.Context(), user.ID)
		if err != nil {
			sendAppError(w, err)
			return
		}
		w.Write(utils.ToJson(map[string]any{
			"user":            user,
			"followers_count": stats.FollowersCount,
			"following_count": stats.FollowingCount,
			"posts_count":     stats.PostsCount,
		}))
	case "posts":
		page, pageSize := s.getPagination(r)
		result, err := s.storage.PostsByUser(r.Context(), user.ID, page, pageSize)
		if err != nil {
			sendAppError(w, err)
			return
		}
		w.Write(utils.ToJson(result))
	default:
		sendError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload struct {
		AuthorID uint   `json:"author_id"`
		Body     string `json:"body"`
	}
	if err := decodeJson(r, &payload); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post := models.Post{
		AuthorID: payload.AuthorID,
		Body:     payload.Body,
	}
	if err := s.storage.CreatePost(r.Context(), &post); err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(utils.ToJson(post))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := utils.IntFromString(strings.TrimPrefix(r.URL.Path, "/posts/"), 0)
	if id <= 0 {
		sendError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := s.storage.DeletePost(r.Context(), uint(id)); err != nil {
		sendAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	s.handleFollowChange(w, r, s.storage.Follow)
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	s.handleFollowChange(w, r, s.storage.Unfollow)
}

func (s *Server) handleFollowChange(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, followerID, followedID uint) error,
) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload struct {
		FollowerID uint `json:"follower_id"`
		FollowedID uint `json:"followed_id"`
	}
	if err := decodeJson(r, &payload); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Self-follow policy lives here, not in the store.
	if payload.FollowerID == payload.FollowedID {
		sendError(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}

	if err := change(r.Context(), payload.FollowerID, payload.FollowedID); err != nil {
		sendAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	queryParams := r.URL.Query()
	userID := utils.IntFromString(*getQueryItem(queryParams, "user_id"), 0)
	if userID <= 0 {
		sendError(w, http.StatusBadRequest, "invalid user_id param")
		return
	}
	page, pageSize := s.getPagination(r)

	result, err := s.storage.Timeline(r.Context(), uint(userID), page, pageSize)
	if err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(utils.ToJson(result))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	queryParams := r.URL.Query()
	text := *getQueryItem(queryParams, "q")
	page, pageSize := s.getPagination(r)

	posts, total, err := s.storage.SearchPosts(r.Context(), text, page, pageSize)
	if err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(utils.ToJson(map[string]any{
		"posts": posts,
		"total": total,
	}))
}

func (s *Server) reindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	indexed, err := s.storage.ReindexPosts(r.Context())
	if err != nil {
		sendAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(utils.ToJson(map[string]any{"indexed": indexed}))
}

func (s *Server) getPagination(r *http.Request) (page int, pageSize int) {
	queryParams := r.URL.Query()
	page = utils.IntFromString(*getQueryItem(queryParams, "page"), 1)
	pageSize = utils.IntFromString(*getQueryItem(queryParams, "page_size"), s.postsPerPage)
	return page, pageSize
}
