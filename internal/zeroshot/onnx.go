package zeroshot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/Veraticus/dear-diary/internal/model"
)

const (
	defaultMaxTokens       = 512
	defaultEntailmentIndex = 2 // contradiction, neutral, entailment
	nliClasses             = 3
)

var (
	ortMu       sync.Mutex
	ortRefCount int
)

// acquireRuntime initializes the process-wide ONNX Runtime environment on
// first use.
func acquireRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ortRefCount == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}
	ortRefCount++
	return nil
}

func releaseRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()

	ortRefCount--
	if ortRefCount == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// onnxPipeline runs an MNLI cross-encoder once per (text, label) pair and
// softmaxes the entailment logits across labels.
type onnxPipeline struct {
	session    *ort.DynamicAdvancedSession
	tk         *tokenizer.Tokenizer
	template   string
	bos        int64
	eos        int64
	pad        int64
	maxTokens  int
	entailment int
	mu         sync.Mutex
}

func newONNXPipeline(ctx context.Context, cfg ONNXConfig, template string) (*onnxPipeline, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("onnx model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, errors.New("tokenizer path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	special := make(map[string]int64, 3)
	for _, tok := range []string{"<s>", "</s>", "<pad>"} {
		id, ok := tk.TokenToId(tok)
		if !ok {
			return nil, fmt.Errorf("tokenizer has no %s token", tok)
		}
		special[tok] = int64(id)
	}

	if err := acquireRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil)
	if err != nil {
		_ = releaseRuntime()
		return nil, fmt.Errorf("failed to create onnx session for %s: %w", cfg.ModelPath, err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &onnxPipeline{
		session:    session,
		tk:         tk,
		template:   template,
		bos:        special["<s>"],
		eos:        special["</s>"],
		pad:        special["<pad>"],
		maxTokens:  maxTokens,
		entailment: cfg.entailmentIndex(),
	}, nil
}

// entailmentIndex returns the configured entailment logit, falling back to
// the default when unset or out of range.
func (c ONNXConfig) entailmentIndex() int {
	if c.EntailmentIndex == nil || *c.EntailmentIndex < 0 || *c.EntailmentIndex >= nliClasses {
		return defaultEntailmentIndex
	}
	return *c.EntailmentIndex
}

// Classify implements Pipeline.
func (p *onnxPipeline) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	if len(labels) == 0 {
		return model.LabelScores{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	premise, err := p.tk.EncodeSingle(text, false)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize entry: %w", err)
	}

	rows := make([][]int64, 0, len(labels))
	width := 0
	for _, label := range labels {
		hyp, encErr := p.tk.EncodeSingle(hypothesis(p.template, label), false)
		if encErr != nil {
			return nil, fmt.Errorf("failed to tokenize label %q: %w", label, encErr)
		}
		row := p.pairIDs(premise.Ids, hyp.Ids)
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}

	batch := len(rows)
	ids := make([]int64, batch*width)
	mask := make([]int64, batch*width)
	for i, row := range rows {
		for j := 0; j < width; j++ {
			k := i*width + j
			if j < len(row) {
				ids[k] = row[j]
				mask[k] = 1
			} else {
				ids[k] = p.pad
			}
		}
	}

	logits, err := p.run(ids, mask, batch, width)
	if err != nil {
		return nil, err
	}

	entail := make([]float64, batch)
	for i := range entail {
		entail[i] = float64(logits[i*nliClasses+p.entailment])
	}
	probs := softmax(entail)

	out := make(model.LabelScores, len(labels))
	for i, label := range labels {
		out[i] = model.LabelScore{Label: label, Score: probs[i]}
	}
	out.Sort()
	return out, nil
}

// pairIDs lays out <s> premise </s></s> hypothesis </s>, trimming the
// premise so the row fits maxTokens.
func (p *onnxPipeline) pairIDs(premise, hyp []int) []int64 {
	room := p.maxTokens - len(hyp) - 4
	if room < 0 {
		room = 0
	}
	if len(premise) > room {
		premise = premise[:room]
	}

	row := make([]int64, 0, len(premise)+len(hyp)+4)
	row = append(row, p.bos)
	for _, id := range premise {
		row = append(row, int64(id))
	}
	row = append(row, p.eos, p.eos)
	for _, id := range hyp {
		row = append(row, int64(id))
	}
	return append(row, p.eos)
}

func (p *onnxPipeline) run(ids, mask []int64, batch, width int) ([]float32, error) {
	shape := ort.NewShape(int64(batch), int64(width))

	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build input_ids tensor: %w", err)
	}
	defer func() { _ = idsTensor.Destroy() }()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to build attention_mask tensor: %w", err)
	}
	defer func() { _ = maskTensor.Destroy() }()

	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), nliClasses))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate logits tensor: %w", err)
	}
	defer func() { _ = logits.Destroy() }()

	p.mu.Lock()
	err = p.session.Run([]ort.Value{idsTensor, maskTensor}, []ort.Value{logits})
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx inference failed: %w", err)
	}

	data := logits.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Close releases the session and, with the last session, the runtime.
func (p *onnxPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return errors.Join(err, releaseRuntime())
}

func softmax(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	peak := xs[0]
	for _, x := range xs[1:] {
		if x > peak {
			peak = x
		}
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
