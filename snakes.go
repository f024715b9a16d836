package snakesboard

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
)

var SnakesModel = family.WithModel("snakes")

func init() {
	resource.RegisterService(generic.API, SnakesModel,
		resource.Registration[resource.Resource, *SnakesConfig]{
			Constructor: newSnakesService,
		},
	)
}

// SnakesConfig wires the board camera, the mapping store location, and an
// optional Gemini model name for generated taunts.
type SnakesConfig struct {
	Camera      string
	MappingDir  string `json:"mapping-dir"`
	GeminiModel string `json:"gemini-model"`
}

func (cfg *SnakesConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Camera == "" {
		return nil, nil, fmt.Errorf("need a camera")
	}
	if cfg.MappingDir == "" {
		return nil, nil, fmt.Errorf("need a mapping-dir")
	}
	return []string{cfg.Camera}, nil, nil
}

type snakesService struct {
	resource.AlwaysRebuild

	name resource.Name

	logger logging.Logger
	conf   *SnakesConfig

	cancelCtx  context.Context
	cancelFunc func()

	cam   camera.Camera
	store *MappingStore

	mu      sync.Mutex
	game    *Game
	taunter Taunter
}

func newSnakesService(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*SnakesConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewSnakes(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewSnakes(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *SnakesConfig, logger logging.Logger) (resource.Resource, error) {
	var err error

	cancelCtx, cancelFunc := context.WithCancel(context.Background())

	s := &snakesService{
		name:       name,
		logger:     logger,
		conf:       conf,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}

	s.cam, err = camera.FromProvider(deps, conf.Camera)
	if err != nil {
		cancelFunc()
		return nil, err
	}

	s.store, err = NewMappingStore(conf.MappingDir)
	if err != nil {
		cancelFunc()
		return nil, err
	}

	canned := NewCannedTaunter(rand.New(rand.NewSource(time.Now().UnixNano())))
	s.taunter = canned
	if conf.GeminiModel != "" {
		gt, err := NewGeminiTaunter(ctx, conf.GeminiModel, canned, logger)
		if err != nil {
			logger.Warnf("gemini taunter unavailable, using canned taunts: %v", err)
		} else {
			s.taunter = gt
		}
	}

	s.resetGame()

	return s, nil
}

func (s *snakesService) Name() resource.Name {
	return s.name
}

// ----

type detectCmd struct {
	Save bool
}

type cmdStruct struct {
	Detect  *detectCmd
	Roll    bool
	Reset   bool
	Mapping bool
}

func (s *snakesService) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd cmdStruct
	err := mapstructure.Decode(cmdMap, &cmd)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Detect != nil:
		return s.doDetect(ctx, cmd.Detect.Save)
	case cmd.Roll:
		return s.doRoll(ctx)
	case cmd.Reset:
		s.mu.Lock()
		s.resetGame()
		s.mu.Unlock()
		return map[string]interface{}{"reset": true}, nil
	case cmd.Mapping:
		doc := s.store.Current()
		if doc == nil {
			return nil, fmt.Errorf("no mapping stored")
		}
		return map[string]interface{}{
			"ladders": doc.Ladders,
			"snakes":  doc.Snakes,
			"meta":    doc.Meta,
		}, nil
	}

	return nil, fmt.Errorf("bad cmd %v", cmdMap)
}

func (s *snakesService) doDetect(ctx context.Context, save bool) (map[string]interface{}, error) {
	img, err := camera.DecodeImageFromCamera(ctx, s.cam, nil, nil)
	if err != nil {
		return nil, err
	}

	result := AutoDetect(img)
	out := map[string]interface{}{
		"success":    result.Success,
		"confidence": result.Confidence,
		"message":    result.Message,
	}
	if !result.Success {
		return out, nil
	}

	s.logger.Infof("auto-detect: %s (confidence %.2f)", result.Message, result.Confidence)

	if save {
		if err := s.store.Save(result.Mapping); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.resetGame()
		s.mu.Unlock()
		out["saved"] = true
	}
	return out, nil
}

func (s *snakesService) doRoll(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	move, err := s.game.PlayTurn()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"player": move.Player,
		"roll":   move.Roll,
		"from":   move.From,
		"to":     move.To,
	}

	// the auto player talks back on its own moves
	if move.Player == 1 {
		out["taunt"] = s.taunter.Taunt(ctx, move)
	}
	if move.Kind == MoveWin {
		out["winner"] = move.Player
	}
	return out, nil
}

// resetGame starts a fresh game over the stored mapping, or the default
// layout if nothing has been calibrated. Caller holds the lock or is still
// in the constructor.
func (s *snakesService) resetGame() {
	transitions := DefaultTransitions()
	if doc := s.store.Current(); doc != nil {
		transitions = TransitionsFromMapping(doc)
	}
	s.game = NewGame(transitions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func (s *snakesService) Close(context.Context) error {
	s.cancelFunc()
	return nil
}
