package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/domain/nutrition"
	"mealvision-server/internal/platform/artifact"
	platformerrors "mealvision-server/internal/platform/errors"
	platformtesting "mealvision-server/internal/platform/testing"
)

func appleResult() *nutrition.AnalysisResult {
	return &nutrition.AnalysisResult{
		FoodItems: []nutrition.FoodItem{{
			Name:        "Apple",
			Ingredients: []string{"apple"},
			Nutrition:   nutrition.Profile{Calories: 95, Carbs: 25, Fiber: 4, Sugar: 19, Sodium: 2},
			Portion:     "1 medium",
			HealthScore: 9,
		}},
		TotalNutrition: nutrition.Profile{Calories: 95, Carbs: 25, Fiber: 4, Sugar: 19, Sodium: 2},
		Analysis: nutrition.MealAnalysis{
			MealType:        nutrition.MealSnack,
			HealthRating:    nutrition.RatingExcellent,
			Recommendations: []string{},
			Warnings:        []string{},
		},
	}
}

type stubCompressor struct {
	calls  int
	output domainimage.CompressedImage
}

func (s *stubCompressor) Compress(raw domainimage.RawImage, maxWidth int, quality float64) domainimage.CompressedImage {
	s.calls++
	if s.output.Data == nil {
		return domainimage.CompressedImage{
			Data:      []byte("compressed"),
			MediaType: "image/jpeg",
			FileName:  raw.FileName,
			Width:     maxWidth,
			Height:    maxWidth / 2,
		}
	}
	return s.output
}

type stubAnalyzer struct {
	calls      int
	milestones []int
	result     *nutrition.AnalysisResult
	err        error
	seen       domainimage.CompressedImage
}

func (s *stubAnalyzer) Analyze(ctx context.Context, img domainimage.CompressedImage, onProgress func(int)) (*nutrition.AnalysisResult, error) {
	s.calls++
	s.seen = img
	for _, m := range s.milestones {
		if onProgress != nil {
			onProgress(m)
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubStore struct {
	calls int
	ref   *artifact.Reference
	err   error
	seen  domainimage.CompressedImage
}

func (s *stubStore) Store(ctx context.Context, img domainimage.CompressedImage, ownerID string) (*artifact.Reference, error) {
	s.calls++
	s.seen = img
	if s.err != nil {
		return nil, s.err
	}
	return s.ref, nil
}

func testOrchestrator(t *testing.T, analyzer *stubAnalyzer, store *stubStore) (*Orchestrator, *stubCompressor) {
	t.Helper()
	compressor := &stubCompressor{}
	orch := NewOrchestrator(
		Config{MaxWidth: 1024, Quality: 0.8},
		compressor, analyzer, store,
		platformtesting.SetupTestLogger(t),
	)
	return orch, compressor
}

func rawUpload() domainimage.RawImage {
	return domainimage.RawImage{Data: []byte("raw"), MediaType: "image/jpeg", FileName: "meal.jpg"}
}

func TestRun_Success(t *testing.T) {
	analyzer := &stubAnalyzer{milestones: []int{0, 25, 50, 75, 100}, result: appleResult()}
	store := &stubStore{ref: &artifact.Reference{URL: "https://store/owner1/img.jpg", Key: "owner1/img.jpg"}}
	orch, compressor := testOrchestrator(t, analyzer, store)

	var progress []int
	outcome, err := orch.Run(context.Background(), rawUpload(), "owner1", func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Analysis == nil || outcome.Artifact == nil {
		t.Fatal("outcome must carry both the analysis and the artifact reference")
	}
	if outcome.Artifact.URL != "https://store/owner1/img.jpg" {
		t.Errorf("unexpected artifact URL %q", outcome.Artifact.URL)
	}
	if outcome.Analysis.FoodItems[0].Name != "Apple" {
		t.Errorf("unexpected analysis %+v", outcome.Analysis)
	}

	if compressor.calls != 1 || analyzer.calls != 1 || store.calls != 1 {
		t.Errorf("stage call counts = %d/%d/%d, want 1/1/1",
			compressor.calls, analyzer.calls, store.calls)
	}
	if string(analyzer.seen.Data) != "compressed" || string(store.seen.Data) != "compressed" {
		t.Error("analyzer and store must both receive the compressed bytes")
	}

	if len(progress) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Errorf("progress not strictly increasing: %v", progress)
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("final progress = %d, want exactly 100", progress[len(progress)-1])
	}
}

func TestRun_AnalysisMilestonesRescaled(t *testing.T) {
	analyzer := &stubAnalyzer{milestones: []int{0, 25, 50, 75, 100}, result: appleResult()}
	store := &stubStore{ref: &artifact.Reference{URL: "https://x/a", Key: "a"}}
	orch, _ := testOrchestrator(t, analyzer, store)

	var progress []int
	if _, err := orch.Run(context.Background(), rawUpload(), "owner1", func(p int) {
		progress = append(progress, p)
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int{0, 20, 35, 50, 65, 80, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", progress, want)
		}
	}
}

func TestRun_AnalysisFailureSkipsStore(t *testing.T) {
	analyzer := &stubAnalyzer{
		milestones: []int{0, 25, 50},
		err: platformerrors.NewCoded(platformerrors.KindVision,
			platformerrors.CodeRateLimited, "vision.analyze", "rate limit exceeded"),
	}
	store := &stubStore{ref: &artifact.Reference{URL: "https://x/a", Key: "a"}}
	orch, _ := testOrchestrator(t, analyzer, store)

	var progress []int
	outcome, err := orch.Run(context.Background(), rawUpload(), "owner1", func(p int) {
		progress = append(progress, p)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome != nil {
		t.Error("failed runs must not return a partial outcome")
	}
	if !platformerrors.IsCode(err, platformerrors.CodeRateLimited) {
		t.Errorf("analysis error code must survive the pipeline, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("store invoked %d times after analysis failure, want 0", store.calls)
	}
	for _, p := range progress {
		if p >= 100 {
			t.Errorf("failed run reported completion: %v", progress)
		}
	}
}

func TestRun_UploadFailureFailsRun(t *testing.T) {
	analyzer := &stubAnalyzer{milestones: []int{100}, result: appleResult()}
	store := &stubStore{
		err: platformerrors.NewCoded(platformerrors.KindStorage,
			platformerrors.CodeStorageUnavailable, "artifact.store", "disk full"),
	}
	orch, _ := testOrchestrator(t, analyzer, store)

	var progress []int
	outcome, err := orch.Run(context.Background(), rawUpload(), "owner1", func(p int) {
		progress = append(progress, p)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome != nil {
		t.Error("a successful analysis with a failed upload is still a failed run")
	}
	if !platformerrors.IsCode(err, platformerrors.CodeStorageUnavailable) {
		t.Errorf("unexpected error %v", err)
	}
	if progress[len(progress)-1] == 100 {
		t.Errorf("failed run reported completion: %v", progress)
	}
}

func TestRun_RequiresOwner(t *testing.T) {
	analyzer := &stubAnalyzer{result: appleResult()}
	store := &stubStore{ref: &artifact.Reference{URL: "https://x/a", Key: "a"}}
	orch, compressor := testOrchestrator(t, analyzer, store)

	_, err := orch.Run(context.Background(), rawUpload(), "", nil)
	if !platformerrors.IsCode(err, platformerrors.CodeUnauthenticated) {
		t.Fatalf("expected CodeUnauthenticated, got %v", err)
	}
	if compressor.calls != 0 || analyzer.calls != 0 || store.calls != 0 {
		t.Error("no stage may run without an owner")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	analyzer := &stubAnalyzer{result: appleResult()}
	store := &stubStore{ref: &artifact.Reference{URL: "https://x/a", Key: "a"}}
	orch, _ := testOrchestrator(t, analyzer, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Run(ctx, rawUpload(), "owner1", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if store.calls != 0 {
		t.Error("store must not run after cancellation")
	}
}

// End to end with the real compressor: an oversized upload is scaled to the
// width budget and the scaled jpeg is what both collaborators receive.
func TestRun_ResizesOversizedUpload(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	for x := 0; x < 2000; x += 64 {
		for y := 0; y < 1000; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	analyzer := &stubAnalyzer{milestones: []int{100}, result: appleResult()}
	store := &stubStore{ref: &artifact.Reference{URL: "https://x/a", Key: "a"}}
	orch := NewOrchestrator(
		Config{MaxWidth: 1024, Quality: 0.8},
		domainimage.NewCompressor(platformtesting.SetupTestLogger(t)),
		analyzer, store,
		platformtesting.SetupTestLogger(t),
	)

	raw := domainimage.RawImage{Data: buf.Bytes(), MediaType: "image/png", FileName: "wide.png"}
	outcome, err := orch.Run(context.Background(), raw, "owner1", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome == nil {
		t.Fatal("expected an outcome")
	}

	if analyzer.seen.Width != 1024 || analyzer.seen.Height != 512 {
		t.Errorf("analyzer saw %dx%d, want 1024x512", analyzer.seen.Width, analyzer.seen.Height)
	}
	if analyzer.seen.MediaType != "image/jpeg" {
		t.Errorf("analyzer saw media type %q, want image/jpeg", analyzer.seen.MediaType)
	}
	if !bytes.Equal(analyzer.seen.Data, store.seen.Data) {
		t.Error("the archived bytes must be exactly what the model saw")
	}
}

func TestStageFor(t *testing.T) {
	tests := []struct {
		global int
		want   Stage
	}{
		{0, StageCompressing},
		{19, StageCompressing},
		{20, StageAnalyzing},
		{79, StageAnalyzing},
		{80, StageUploading},
		{99, StageUploading},
		{100, StageDone},
	}
	for _, tt := range tests {
		if got := StageFor(tt.global); got != tt.want {
			t.Errorf("StageFor(%d) = %s, want %s", tt.global, got, tt.want)
		}
	}
}

func TestTracker_ClampsAndStaysMonotonic(t *testing.T) {
	var seen []int
	tr := newTracker(func(p int) { seen = append(seen, p) })

	tr.enter(StageAnalyzing)
	tr.update(50)
	tr.update(25) // regression is swallowed
	tr.update(150)
	tr.update(-10)
	tr.finish()

	want := []int{20, 50, 80, 100}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}
