package snakesboard

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"google.golang.org/genai"

	"go.viam.com/rdk/logging"
)

// Taunts for the auto player. The canned tables always work; a Gemini client
// can be layered on top for fresher material and falls back to the tables on
// any error.

var cannedTaunts = map[MoveKind][]string{
	MoveNormal: {
		"A whole %d squares. Riveting.",
		"Rolled a %d. The board trembles.",
		"Forward %d. Somebody alert the historians.",
	},
	MoveLadder: {
		"A ladder! Climbing is a skill, you know.",
		"Up I go. The view from here is lovely.",
		"Ladders love me. It's mutual.",
	},
	MoveSnake: {
		"That snake was clearly rigged.",
		"I meant to slide down there. Scouting.",
		"The snake and I had an arrangement. It lied.",
	},
	MoveStuck: {
		"Overshot. The board is simply too small for my ambition.",
		"I'll wait here. Dramatic tension.",
	},
	MoveWin: {
		"Square 100. Was there ever any doubt?",
		"Victory. Do try to keep up next time.",
	},
}

// Taunter produces a line of trash talk for a resolved move.
type Taunter interface {
	Taunt(ctx context.Context, move Move) string
}

// CannedTaunter picks from the built-in tables with a seeded source.
type CannedTaunter struct {
	rng *rand.Rand
}

func NewCannedTaunter(rng *rand.Rand) *CannedTaunter {
	return &CannedTaunter{rng: rng}
}

func (t *CannedTaunter) Taunt(_ context.Context, move Move) string {
	lines := cannedTaunts[move.Kind]
	line := lines[t.rng.Intn(len(lines))]
	if strings.Contains(line, "%d") {
		return fmt.Sprintf(line, move.Roll)
	}
	return line
}

const tauntPrompt = `You are the gleefully smug computer opponent in a Snakes & Ladders game.
The move that just happened: player %d rolled a %d and went from square %d to square %d (%s).
Reply with ONE short taunt, under 15 words, no quotes, no markdown.`

var moveKindNames = map[MoveKind]string{
	MoveNormal: "a plain move",
	MoveLadder: "a ladder climb",
	MoveSnake:  "a snake slide",
	MoveStuck:  "an overshoot, no move",
	MoveWin:    "the winning move",
}

// GeminiTaunter asks a Gemini model for a taunt, falling back to the canned
// tables when the call fails or returns nothing.
type GeminiTaunter struct {
	client    *genai.Client
	modelName string
	fallback  *CannedTaunter
	logger    logging.Logger
}

func NewGeminiTaunter(ctx context.Context, modelName string, fallback *CannedTaunter, logger logging.Logger) (*GeminiTaunter, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiTaunter{
		client:    client,
		modelName: modelName,
		fallback:  fallback,
		logger:    logger,
	}, nil
}

func (t *GeminiTaunter) Taunt(ctx context.Context, move Move) string {
	prompt := fmt.Sprintf(tauntPrompt, move.Player, move.Roll, move.From, move.To, moveKindNames[move.Kind])

	resp, err := t.client.Models.GenerateContent(ctx, t.modelName,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(1.0)),
		},
	)
	if err != nil {
		t.logger.Warnf("gemini taunt failed, using canned line: %v", err)
		return t.fallback.Taunt(ctx, move)
	}

	line := strings.TrimSpace(resp.Text())
	if line == "" {
		return t.fallback.Taunt(ctx, move)
	}
	return line
}
