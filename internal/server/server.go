package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/loan-tracker/internal/advisor"
	"github.com/iwvelando/loan-tracker/internal/config"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/output"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	engine        *loans.Engine
	advisor       *advisor.Service
	now           func() time.Time
}

// Option customizes the handler.
type Option func(*options)

type options struct {
	allowedOrigins []string
	advisor        *advisor.Service
	now            func() time.Time
}

// WithAllowedOrigins restricts cross-origin requests to the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// WithAdvisor enables the advice endpoint backed by the given service.
func WithAdvisor(service *advisor.Service) Option {
	return func(o *options) {
		o.advisor = service
	}
}

// WithClock overrides the clock used when a request omits asOf.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewHandler constructs the HTTP handler that serves the amortization API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	o := options{allowedOrigins: []string{"*"}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.advisor == nil {
		o.advisor = advisor.NewService(nil, nil, advisor.Options{}, logger)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		engine:        loans.NewEngine(logger),
		advisor:       o.advisor,
		now:           o.now,
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Amortization from a JSON loan description
	api.HandleFunc("/amortization", h.handleAmortization).Methods(http.MethodPost)

	// Amortization from an uploaded YAML configuration file
	api.HandleFunc("/amortization/upload", h.handleUpload).Methods(http.MethodPost)

	// Advisory commentary
	api.HandleFunc("/advice", h.handleAdvice).Methods(http.MethodPost)

	// Config serialization endpoint for downloads
	api.HandleFunc("/config/export", h.handleConfigExport).Methods(http.MethodPost)

	// Version endpoint for UI metadata
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: o.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

// loanRequest is the JSON body accepted by the amortization and advice
// endpoints. Field names match the YAML configuration.
type loanRequest struct {
	Loan config.LoanConfig `json:"loan"`
	AsOf string            `json:"asOf,omitempty"`
}

type amortizationResponse struct {
	output.Report
	CSV      string   `json:"csv"`
	Warnings []string `json:"warnings,omitempty"`
	Duration string   `json:"duration"`
}

type adviceResponse struct {
	Advice   string          `json:"advice"`
	Source   string          `json:"source"`
	Summary  advisor.Summary `json:"summary"`
	Duration string          `json:"duration"`
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"
	start := time.Now()

	cfg, ok := h.decodeLoanRequest(w, r, op)
	if !ok {
		return
	}
	h.runAmortization(w, r, cfg, start, op)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	cfg.Output.Format = constants.OutputFormatJSON

	h.runAmortization(w, r, cfg, start, op)
}

func (h *handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAdvice"
	start := time.Now()

	cfg, ok := h.decodeLoanRequest(w, r, op)
	if !ok {
		return
	}
	input, result, _, ok := h.compute(w, cfg, op)
	if !ok {
		return
	}

	summary := advisor.NewSummary(input, result)
	advice := h.advisor.Advise(r.Context(), summary)

	h.logger.Info("advice served",
		zap.String("op", op),
		zap.String("source", advice.Source),
		zap.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, adviceResponse{
		Advice:   advice.Text,
		Source:   advice.Source,
		Summary:  summary,
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) decodeLoanRequest(w http.ResponseWriter, r *http.Request, op string) (*config.Configuration, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode loan: %v", err), op)
		return nil, false
	}

	return &config.Configuration{
		Loan:   req.Loan,
		AsOf:   req.AsOf,
		Output: config.OutputConfig{Format: constants.OutputFormatJSON},
	}, true
}

// compute converts the configuration into engine input and runs the engine.
// On failure the error response has already been written.
func (h *handler) compute(w http.ResponseWriter, cfg *config.Configuration, op string) (loans.LoanInput, loans.Result, []string, bool) {
	input, err := cfg.LoanInput()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return loans.LoanInput{}, loans.Result{}, nil, false
	}
	asOf, err := cfg.AsOfTime(h.now())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return loans.LoanInput{}, loans.Result{}, nil, false
	}

	warnings := cfg.ValidateConfiguration()
	input, _ = validation.SanitizeLoanInput(input)

	return input, h.engine.Compute(input, asOf), warnings, true
}

func (h *handler) runAmortization(w http.ResponseWriter, r *http.Request, cfg *config.Configuration, start time.Time, op string) {
	_, result, warnings, ok := h.compute(w, cfg, op)
	if !ok {
		return
	}

	report := output.BuildReport(result)

	if strings.EqualFold(r.URL.Query().Get("format"), constants.OutputFormatCSV) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
		if err := output.CsvFormat(w, report); err != nil {
			h.logger.Error("failed to write CSV response",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		return
	}

	csv, err := output.CsvString(report)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("amortization computed",
		zap.String("op", op),
		zap.Int("actualPeriods", len(result.ActualSchedule)),
		zap.Int("historyEvents", len(result.History)),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, amortizationResponse{
		Report:   report,
		CSV:      csv,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"loan", "asOf", "logging", "output", "advisor"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
