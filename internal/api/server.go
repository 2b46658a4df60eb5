// Package api serves the prediction form over HTTP.
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"carprice/internal/artifact"
	"carprice/internal/config"
	"carprice/internal/dataset"
	"carprice/internal/metrics"
	"carprice/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

// ListingReader is the read-only slice of the store the UI needs: values to
// populate the form's selects and typical numbers to prefill its inputs.
type ListingReader interface {
	Distinct(ctx context.Context, column string) ([]string, error)
	Defaults(ctx context.Context) (store.FormDefaults, error)
}

// Server wires the prediction form to the artifact and the listing store.
// The artifact is reloaded per request, so a fresh training run shows up
// without a restart; there is no write contention because the artifact is
// only ever replaced wholesale by the trainer.
type Server struct {
	router        chi.Router
	listings      ListingReader
	artifacts     artifact.Store
	artifactName  string
	logger        *zap.Logger
	indexTemplate *template.Template
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	listings ListingReader,
	artifacts artifact.Store,
	artifactName string,
	logger *zap.Logger,
) *Server {
	metrics.Init()
	s := &Server{
		listings:      listings,
		artifacts:     artifacts,
		artifactName:  artifactName,
		logger:        logger,
		indexTemplate: template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/", s.index)
	r.Post("/predict", s.predict)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the UI until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("Prediction UI listening", zap.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// pageData feeds the index template.
type pageData struct {
	ModelAvailable bool
	Makes          []string
	Models         []string
	BodyTypes      []string
	Fuels          []string
	Gearboxes      []string
	Form           formValues
	Errors         []string
	Result         *resultView
}

type formValues struct {
	Make         string
	Model        string
	BodyType     string
	Fuel         string
	Gearbox      string
	Year         string
	Mileage      string
	EngineVolume string
	EnginePower  string
}

type resultView struct {
	Price float64
	Notes []string
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Error("healthz write failed", zap.Error(err))
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	data := s.basePageData(r.Context())
	s.render(w, http.StatusOK, data)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := s.basePageData(ctx)

	if !data.ModelAvailable {
		metrics.ObservePrediction("model_unavailable")
		s.render(w, http.StatusServiceUnavailable, data)
		return
	}

	if err := r.ParseForm(); err != nil {
		data.Errors = append(data.Errors, "could not read the submitted form")
		metrics.ObservePrediction("invalid_input")
		s.render(w, http.StatusBadRequest, data)
		return
	}

	form, input, errs := parseFormInput(r)
	data.Form = form
	if len(errs) > 0 {
		data.Errors = errs
		metrics.ObservePrediction("invalid_input")
		s.render(w, http.StatusBadRequest, data)
		return
	}

	art, err := artifact.Load(ctx, s.artifacts, s.artifactName)
	if err != nil {
		// The artifact disappeared between the availability check and now.
		s.logger.Error("Artifact load failed", zap.Error(err))
		data.ModelAvailable = false
		metrics.ObservePrediction("model_unavailable")
		s.render(w, http.StatusServiceUnavailable, data)
		return
	}

	price, err := art.Model.Predict(art.Encoding.Vector(input))
	if err != nil {
		s.logger.Error("Prediction failed", zap.Error(err))
		data.Errors = append(data.Errors, "prediction failed, see server logs")
		metrics.ObservePrediction("error")
		s.render(w, http.StatusInternalServerError, data)
		return
	}

	result := &resultView{Price: price}
	result.Notes = unknownCategoryNotes(art.Encoding, input)
	data.Result = result
	metrics.ObservePrediction("ok")
	s.render(w, http.StatusOK, data)
}

// basePageData loads everything the form needs. Failures to enumerate stored
// values degrade to empty selects rather than a failed page.
func (s *Server) basePageData(ctx context.Context) pageData {
	data := pageData{}

	if _, err := artifact.Load(ctx, s.artifacts, s.artifactName); err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			s.logger.Error("Artifact unreadable", zap.Error(err))
		}
	} else {
		data.ModelAvailable = true
	}

	data.Makes = s.distinct(ctx, "make")
	data.Models = s.distinct(ctx, "model")
	data.BodyTypes = s.distinct(ctx, "body_type")
	data.Fuels = s.distinct(ctx, "fuel")
	data.Gearboxes = s.distinct(ctx, "gearbox")

	defaults, err := s.listings.Defaults(ctx)
	if err != nil {
		s.logger.Warn("Could not compute form defaults", zap.Error(err))
	}
	if defaults.Year == 0 {
		defaults = store.FormDefaults{Year: 2018, MileageKM: 50000, EngineLiters: 2.0, EnginePowerKW: 150}
	}
	data.Form = formValues{
		Year:         strconv.Itoa(defaults.Year),
		Mileage:      strconv.Itoa(defaults.MileageKM),
		EngineVolume: strconv.FormatFloat(defaults.EngineLiters, 'f', 1, 64),
		EnginePower:  strconv.Itoa(defaults.EnginePowerKW),
	}
	return data
}

func (s *Server) distinct(ctx context.Context, column string) []string {
	values, err := s.listings.Distinct(ctx, column)
	if err != nil {
		s.logger.Warn("Could not enumerate column", zap.String("column", column), zap.Error(err))
		return nil
	}
	return values
}

// parseFormInput validates the submitted fields and builds the encoder input.
func parseFormInput(r *http.Request) (formValues, dataset.Input, []string) {
	form := formValues{
		Make:         r.PostFormValue("make"),
		Model:        r.PostFormValue("model"),
		BodyType:     r.PostFormValue("body_type"),
		Fuel:         r.PostFormValue("fuel"),
		Gearbox:      r.PostFormValue("gearbox"),
		Year:         r.PostFormValue("year"),
		Mileage:      r.PostFormValue("mileage"),
		EngineVolume: r.PostFormValue("engine_volume"),
		EnginePower:  r.PostFormValue("engine_power"),
	}

	var errs []string
	required := []struct {
		name  string
		value string
	}{
		{"make", form.Make},
		{"model", form.Model},
		{"body type", form.BodyType},
		{"fuel", form.Fuel},
		{"gearbox", form.Gearbox},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, fmt.Sprintf("%s is required", f.name))
		}
	}

	input := dataset.Input{
		Make:     form.Make,
		Model:    form.Model,
		BodyType: form.BodyType,
		Fuel:     form.Fuel,
		Gearbox:  form.Gearbox,
	}

	year, err := strconv.Atoi(form.Year)
	if err != nil || year < 1900 || year > time.Now().Year()+1 {
		errs = append(errs, "year must be a plausible calendar year")
	} else {
		input.Year = year
	}

	mileage, err := strconv.Atoi(form.Mileage)
	if err != nil || mileage < 0 {
		errs = append(errs, "mileage must be a non-negative number")
	} else {
		input.MileageKM = mileage
	}

	volume, err := strconv.ParseFloat(form.EngineVolume, 64)
	if err != nil || volume < 0 {
		errs = append(errs, "engine size must be a non-negative number")
	} else {
		input.EngineLiters = volume
	}

	power, err := strconv.Atoi(form.EnginePower)
	if err != nil || power < 0 {
		errs = append(errs, "engine power must be a non-negative number")
	} else {
		input.EnginePowerKW = power
	}

	return form, input, errs
}

// unknownCategoryNotes explains which submitted values fell back to the
// default (all-zero) encoding because training never saw them.
func unknownCategoryNotes(enc dataset.Encoding, in dataset.Input) []string {
	var notes []string
	checks := []struct {
		column string
		value  string
	}{
		{"make", in.Make},
		{"model", in.Model},
		{"body_type", in.BodyType},
		{"fuel", in.Fuel},
		{"gearbox", in.Gearbox},
	}
	for _, c := range checks {
		if c.value != "" && !enc.Knows(c.column, c.value) {
			notes = append(notes, fmt.Sprintf("%q was not seen during training; the default encoding was used for %s", c.value, c.column))
		}
	}
	return notes
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("Template render failed", zap.Error(err))
	}
}

var _ ListingReader = (*store.Store)(nil)
