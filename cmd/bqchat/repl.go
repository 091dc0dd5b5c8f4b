package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bqadmin/internal/analytics"
	"bqadmin/internal/chat"
)

const replHelp = `Commands:
  /use <dataset> [project]     select a dataset from the current list
  /datasets                    reload and show the dataset list
  /model <provider> [name]     switch provider (claude, openai, gemini)
  /key <api-key>               set the provider API key sent with queries
  /save-model                  store the current model settings for your account
  /history                     reprint the conversation
  /quit                        leave
Anything else is sent as a question about the selected dataset.`

// chatSession is the terminal counterpart of the dashboard chat page.
type chatSession struct {
	api       *apiClient
	render    *renderer
	conv      *chat.Conversation
	catalog   *chat.Catalog
	projectID string

	provider  analytics.Provider
	modelName string
	apiKey    string
}

func newChatSession(api *apiClient, r *renderer, projectID string) *chatSession {
	return &chatSession{
		api:       api,
		render:    r,
		conv:      chat.NewConversation(),
		catalog:   chat.NewCatalog(),
		projectID: projectID,
		provider:  analytics.DefaultProvider,
		modelName: analytics.DefaultProvider.DefaultModel(),
	}
}

func (s *chatSession) add(t chat.Turn) {
	if err := s.conv.Append(t); err != nil {
		s.render.Error(err)
		return
	}
	s.render.Turn(t)
}

// loadDatasets refreshes the catalog and announces the result.
func (s *chatSession) loadDatasets(ctx context.Context) {
	datasets, err := s.api.ListDatasets(ctx, s.projectID)
	if err != nil {
		s.add(chat.DatasetsFailedTurn())
		return
	}
	s.catalog.Replace(datasets)
	s.add(chat.DatasetsLoadedTurn(len(datasets)))
}

func (s *chatSession) selectDataset(datasetID, projectID string) error {
	ds, err := s.catalog.Select(datasetID, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", datasetID, err)
	}
	s.add(chat.DatasetSelectedTurn(ds.DatasetID))
	return nil
}

func (s *chatSession) ask(ctx context.Context, question string) {
	ds, err := s.catalog.Selected()
	if err != nil {
		s.render.Info("Select a dataset first with /use <dataset>.")
		return
	}

	s.add(chat.UserTurn(question))

	resp, err := s.api.Query(ctx, analytics.QueryRequest{
		Query:         question,
		DatasetID:     ds.DatasetID,
		ProjectID:     ds.ProjectID,
		ModelProvider: s.provider,
		ModelName:     s.modelName,
		APIKey:        s.apiKey,
	})
	if err != nil {
		s.add(chat.AssistantErrorTurn(""))
		return
	}
	s.add(chat.AssistantTurn(*resp))
}

func (s *chatSession) setModel(args []string) error {
	if len(args) == 0 {
		s.render.Info(fmt.Sprintf("Model: %s / %s", s.provider, s.modelName))
		return nil
	}
	p := analytics.Provider(strings.ToLower(args[0]))
	if !p.IsValid() {
		return fmt.Errorf("unknown provider %q", args[0])
	}
	s.provider = p
	s.modelName = p.DefaultModel()
	if len(args) > 1 {
		s.modelName = args[1]
	}
	s.render.Info(fmt.Sprintf("Model: %s / %s", s.provider, s.modelName))
	return nil
}

func (s *chatSession) saveModel(ctx context.Context) error {
	if s.apiKey == "" {
		return errors.New("set an API key with /key first")
	}
	if err := s.api.SaveModelConfig(ctx, s.provider, s.modelName, s.apiKey); err != nil {
		return err
	}
	s.render.Info("Model configuration saved successfully!")
	return nil
}

// handleLine runs one input line. It reports false when the session should end.
func (s *chatSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		s.ask(ctx, line)
		return true
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		s.render.Info(replHelp)
	case "/datasets":
		s.loadDatasets(ctx)
		s.render.Datasets(s.catalog.Datasets())
	case "/use":
		if len(args) == 0 {
			err = errors.New("usage: /use <dataset> [project]")
			break
		}
		project := ""
		if len(args) > 1 {
			project = args[1]
		}
		err = s.selectDataset(args[0], project)
	case "/model":
		err = s.setModel(args)
	case "/key":
		if len(args) != 1 {
			err = errors.New("usage: /key <api-key>")
			break
		}
		s.apiKey = args[0]
		s.render.Info("API key set.")
	case "/save-model":
		err = s.saveModel(ctx)
	case "/history":
		for _, t := range s.conv.Turns() {
			s.render.Turn(t)
		}
	default:
		err = fmt.Errorf("unknown command %s, try /help", cmd)
	}

	if err != nil {
		s.render.Error(err)
	}
	return true
}

// run reads lines from in until EOF, /quit or ctx is done.
func (s *chatSession) run(ctx context.Context, in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if prompt {
			fmt.Fprint(s.render.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !s.handleLine(ctx, scanner.Text()) {
			return nil
		}
	}
}
