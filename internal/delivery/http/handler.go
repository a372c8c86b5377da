package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/arenafs/arenafs/internal/domain"
	"github.com/arenafs/arenafs/internal/fs"
	"github.com/arenafs/arenafs/internal/usecase"
)

type Handler struct {
	vol       usecase.VolumeService
	authToken string
}

func NewHandler(vol usecase.VolumeService, authToken string) *Handler {
	return &Handler{
		vol:       vol,
		authToken: authToken,
	}
}

func (h *Handler) isAuthorized(r *http.Request) bool {
	token := r.Header.Get("X-Auth-Token")
	return token == h.authToken
}

type MkdirRequest struct {
	Parent int32  `json:"parent"`
	Name   string `json:"name"`
}

type CreateRequest struct {
	Parent int32  `json:"parent"`
	Name   string `json:"name"`
}

type NodeResponse struct {
	Index int32 `json:"index"`
}

type AttachRequest struct {
	Block int32  `json:"block"`
	Owner int32  `json:"owner"`
	Slot  int    `json:"slot"`
	Data  string `json:"data"` // base64
}

type AppendRequest struct {
	Owner int32  `json:"owner"`
	Data  string `json:"data"` // base64
}

type AppendResponse struct {
	Block int32 `json:"block"`
	Slot  int   `json:"slot"`
}

type ReadRequest struct {
	Index int32 `json:"index"`
}

type ReadResponse struct {
	Data string `json:"data"` // base64
	Size int    `json:"size"`
}

type ListRequest struct {
	Parent int32 `json:"parent"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

type EntryResponse struct {
	Index int32  `json:"index"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  uint16 `json:"size"`
}

type CheckRequest struct {
	Index       int32   `json:"index"`
	Name        string  `json:"name"`
	Type        int32   `json:"type"`
	Parent      int32   `json:"parent"`
	Blocks      []int32 `json:"blocks"`
	VerifyLinks bool    `json:"verify_links"`
}

type CheckResponse struct {
	OK     bool   `json:"ok"`
	Step   string `json:"step,omitempty"`
	Index  int32  `json:"index,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type StatsResponse struct {
	NumBlocks  uint32 `json:"num_blocks"`
	FreeBlocks uint32 `json:"free_blocks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrIndexRange), errors.Is(err, domain.ErrSlotRange):
		writeError(w, http.StatusNotFound, "ERANGE", err.Error())
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, domain.ErrNameLength):
		writeError(w, http.StatusBadRequest, "EINVAL", err.Error())
	case errors.Is(err, domain.ErrInvalidParent), errors.Is(err, domain.ErrNotDir):
		writeError(w, http.StatusBadRequest, "ENOTDIR", err.Error())
	case errors.Is(err, domain.ErrNotFile):
		writeError(w, http.StatusBadRequest, "EISDIR", err.Error())
	case errors.Is(err, domain.ErrBlockInUse), errors.Is(err, domain.ErrInodeInUse):
		writeError(w, http.StatusConflict, "EEXIST", err.Error())
	case errors.Is(err, domain.ErrDirectoryFull):
		writeError(w, http.StatusConflict, "ENOSPC", err.Error())
	case errors.Is(err, domain.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "EFBIG", err.Error())
	case errors.Is(err, domain.ErrNoFreeBlock), errors.Is(err, domain.ErrNoFreeInode):
		writeError(w, http.StatusInsufficientStorage, "ENOSPC", err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "EIO", "internal error")
	}
}

func (h *Handler) Mkdir(w http.ResponseWriter, r *http.Request) {
	if !h.isAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "EACCES", "unauthorized")
		return
	}

	var req MkdirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	idx, err := h.vol.Mkdir(r.Context(), req.Name, req.Parent)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NodeResponse{Index: idx})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.isAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "EACCES", "unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	idx, err := h.vol.CreateFile(r.Context(), req.Name, req.Parent)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NodeResponse{Index: idx})
}

func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	if !h.isAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "EACCES", "unauthorized")
		return
	}

	var req AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid base64 data")
		return
	}

	if err := h.vol.Attach(r.Context(), req.Block, data, req.Owner, req.Slot); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	if !h.isAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "EACCES", "unauthorized")
		return
	}

	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid base64 data")
		return
	}

	block, slot, err := h.vol.Append(r.Context(), req.Owner, data)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppendResponse{Block: block, Slot: slot})
}

func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	var req ReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	data, err := h.vol.Read(r.Context(), req.Index)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReadResponse{
		Data: base64.StdEncoding.EncodeToString(data),
		Size: len(data),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	entries, err := h.vol.List(r.Context(), req.Parent)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := ListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Index: e.Index,
			Name:  e.Name,
			Type:  e.Type.String(),
			Size:  e.Size,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EINVAL", "invalid request body")
		return
	}

	want := fs.ExpectedNode(req.Name, domain.NodeType(req.Type), req.Parent, req.Blocks...)
	err := h.vol.Check(r.Context(), req.Index, want, req.VerifyLinks)
	if err == nil {
		writeJSON(w, http.StatusOK, CheckResponse{OK: true})
		return
	}

	var integrity *fs.IntegrityError
	if errors.As(err, &integrity) {
		writeJSON(w, http.StatusConflict, CheckResponse{
			OK:     false,
			Step:   integrity.Step.String(),
			Index:  integrity.Index,
			Reason: integrity.Reason,
		})
		return
	}
	handleDomainError(w, err)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	sb, err := h.vol.Stats(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		NumBlocks:  sb.NumBlocks,
		FreeBlocks: sb.FreeBlocks,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
