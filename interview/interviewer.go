package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NishanthN27/Final-Year/graph"
	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/store"
)

// Result is the outcome of Start, Answer and Snapshot.
type Result = graph.Result[SessionState]

// Interviewer runs interview sessions on the canonical interview graph.
//
// Example:
//
//	iv, err := interview.New(collabs, store.NewMemStore[interview.SessionState](), nil)
//	res, err := iv.Start(ctx, interview.StartRequest{ResumeText: resume, JobDescriptionText: jd})
//	fmt.Println(res.State.CurrentQuestion.ConversationalText)
//	res, err = iv.Answer(ctx, res.State.SessionID, "I would shard by tenant id")
type Interviewer struct {
	engine   *graph.Engine[SessionState, Patch]
	profiles ProfileStore
	now      func() time.Time
}

// New wires the interview graph over the given checkpoint store. A nil
// emitter discards events.
func New(c Collaborators, st store.Store[SessionState], emitter emit.Emitter, opts ...Option) (*Interviewer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg := defaultSettings()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	engineOpts := append([]graph.Option{graph.WithClock(cfg.clock)}, cfg.engineOptions...)
	eng := graph.New[SessionState, Patch](NewReducers().Reduce, st, emitter, engineOpts...)
	n := &nodes{c: c, profiles: cfg.profiles, followUps: cfg.followUps, maxFollowUps: cfg.maxFollowUps, now: cfg.clock}
	if err := build(eng, n, graph.NodePolicy{Timeout: cfg.nodeTimeout, Retry: cfg.retry}); err != nil {
		return nil, err
	}
	return &Interviewer{engine: eng, profiles: cfg.profiles, now: cfg.clock}, nil
}

// build registers the interview nodes, routers and edges and compiles the
// graph. llm is the policy of nodes that call a collaborator.
func build(eng *graph.Engine[SessionState, Patch], n *nodes, llm graph.NodePolicy) error {
	type entry struct {
		id     string
		fn     graph.NodeFunc[SessionState, Patch]
		policy graph.NodePolicy
	}
	local := graph.NodePolicy{}
	for _, e := range []entry{
		{NodeAnalyzeResume, n.analyzeResume, llm},
		{NodeAnalyzeJob, n.analyzeJob, llm},
		{NodeCreatePlan, n.createPlan, llm},
		{NodeAdvancePlan, n.advancePlan, local},
		{NodeSelectTopic, n.selectTopic, local},
		{NodeRetrieveQuestion, n.retrieveQuestion, llm},
		{NodeDeepDiveQuestion, n.deepDiveQuestion, llm},
		{NodeAwaitAnswer, awaitAnswer, local},
		{NodeFastEval, n.fastEval, llm},
		{NodeRubricEval, n.rubricEval, llm},
		{NodeSynthesize, synthesize, local},
		{NodeGenerateFeedback, n.generateFeedback, llm},
		{NodeGenerateFollowUp, n.generateFollowUp, llm},
		{NodeFinalReporting, finalReporting, local},
		{NodeGenerateReport, n.generateReport, llm},
		{NodeGenerateProfile, n.generateProfile, llm},
		{NodeSaveProfile, n.saveProfile, llm},
	} {
		if err := eng.AddWithPolicy(e.id, e.fn, e.policy); err != nil {
			return err
		}
	}

	steps := []func() error{
		func() error { return eng.StartAt(NodeAnalyzeResume, NodeAnalyzeJob) },
		func() error { return eng.PauseAfter(NodeAwaitAnswer) },

		func() error { return eng.Connect(NodeAnalyzeResume, NodeCreatePlan) },
		func() error { return eng.Connect(NodeAnalyzeJob, NodeCreatePlan) },
		func() error { return eng.Connect(NodeCreatePlan, NodeAdvancePlan) },
		func() error {
			return eng.Route("plan_router", NodeAdvancePlan, planRouter, map[string]string{
				LabelFollowUp:  NodeAwaitAnswer,
				LabelNextTopic: NodeSelectTopic,
				LabelFinished:  NodeFinalReporting,
			})
		},
		func() error {
			return eng.Route("topic_router", NodeSelectTopic, topicRouter, map[string]string{
				LabelStage:    NodeRetrieveQuestion,
				LabelDeepDive: NodeDeepDiveQuestion,
			})
		},
		func() error { return eng.Connect(NodeRetrieveQuestion, NodeAwaitAnswer) },
		func() error { return eng.Connect(NodeDeepDiveQuestion, NodeAwaitAnswer) },

		func() error { return eng.Connect(NodeAwaitAnswer, NodeFastEval) },
		func() error { return eng.Connect(NodeAwaitAnswer, NodeRubricEval) },
		func() error { return eng.Connect(NodeFastEval, NodeSynthesize) },
		func() error { return eng.Connect(NodeRubricEval, NodeSynthesize) },
		func() error {
			return eng.Route("evaluation_router", NodeSynthesize, evaluationRouter, map[string]string{
				LabelNeedsFollowUp: NodeGenerateFollowUp,
				LabelComplete:      NodeGenerateFeedback,
			})
		},
		func() error { return eng.Connect(NodeGenerateFeedback, NodeAdvancePlan) },
		func() error { return eng.Connect(NodeGenerateFollowUp, NodeAdvancePlan) },

		func() error { return eng.Connect(NodeFinalReporting, NodeGenerateReport) },
		func() error { return eng.Connect(NodeFinalReporting, NodeGenerateProfile) },
		func() error { return eng.Connect(NodeGenerateReport, graph.END) },
		func() error { return eng.Connect(NodeGenerateProfile, NodeSaveProfile) },
		func() error { return eng.Connect(NodeSaveProfile, graph.END) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return eng.Compile()
}

// StartRequest carries the inputs of a new session. SessionID is generated
// when empty; UserID enables profile loading and saving.
type StartRequest struct {
	SessionID          string
	UserID             string
	ResumeText         string
	JobDescriptionText string
}

// Start creates a session and runs it until the first question is asked.
func (iv *Interviewer) Start(ctx context.Context, req StartRequest) (Result, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	initial := SessionState{
		SessionID:                 sessionID,
		UserID:                    req.UserID,
		InitialResumeText:         req.ResumeText,
		InitialJobDescriptionText: req.JobDescriptionText,
	}
	if iv.profiles != nil && req.UserID != "" {
		profile, err := iv.profiles.LoadProfile(ctx, req.UserID)
		if err != nil {
			return Result{State: initial}, fmt.Errorf("load profile for %s: %w", req.UserID, err)
		}
		initial.PersonalizationProfile = profile
	}
	return iv.engine.Run(ctx, sessionID, initial)
}

// Answer records the answer to the question the session is paused on and
// runs until the next question or the end of the interview.
func (iv *Interviewer) Answer(ctx context.Context, sessionID, answer string) (Result, error) {
	now := iv.now()
	return iv.engine.Resume(ctx, sessionID, Patch{CurrentQuestion: &QuestionPatch{
		AnswerText: &answer,
		AnsweredAt: &now,
	}})
}

// Resume continues a session with an arbitrary patch. An empty patch
// returns the stored session unchanged, or retries the failed step of a
// session left between steps.
func (iv *Interviewer) Resume(ctx context.Context, sessionID string, p Patch) (Result, error) {
	return iv.engine.Resume(ctx, sessionID, p)
}

// Snapshot returns the stored session.
func (iv *Interviewer) Snapshot(ctx context.Context, sessionID string) (Result, error) {
	return iv.engine.Snapshot(ctx, sessionID)
}

// Delete removes a session.
func (iv *Interviewer) Delete(ctx context.Context, sessionID string) error {
	return iv.engine.Delete(ctx, sessionID)
}

// Mermaid renders the interview graph, highlighting the given nodes.
func (iv *Interviewer) Mermaid(current ...string) string {
	return iv.engine.Mermaid(current...)
}

// Engine exposes the compiled graph engine.
func (iv *Interviewer) Engine() *graph.Engine[SessionState, Patch] {
	return iv.engine
}
