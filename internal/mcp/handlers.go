package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// handleListPhotos handles the list_photos tool
func (s *Server) handleListPhotos(ctx context.Context, req *mcp.CallToolRequest, input ListPhotosInput) (*mcp.CallToolResult, ListPhotosOutput, error) {
	records := s.library.Photos(ctx)

	output := ListPhotosOutput{
		Photos: make([]PhotoInfo, 0, len(records)),
		Total:  len(records),
	}
	for _, rec := range records {
		output.Photos = append(output.Photos, PhotoInfo{
			URL:      rec.URL,
			Source:   string(rec.Source),
			Filename: rec.Filename,
			Date:     rec.Exif.Date,
			Location: rec.Exif.Location,
		})
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%d photos available", output.Total)},
		},
	}, output, nil
}

// handleLibraryStatus handles the library_status tool
func (s *Server) handleLibraryStatus(ctx context.Context, req *mcp.CallToolRequest, input LibraryStatusInput) (*mcp.CallToolResult, LibraryStatusOutput, error) {
	st := s.library.Status(ctx)

	output := LibraryStatusOutput{
		Source:        st.Source,
		Authenticated: st.Authenticated,
		PhotoCount:    st.PhotoCount,
		LastUpdated:   st.LastUpdated,
		AgeSeconds:    st.AgeSeconds,
		Stale:         st.Stale,
	}

	summary := fmt.Sprintf("source=%s authenticated=%t cached_photos=%d", st.Source, st.Authenticated, st.PhotoCount)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
		},
	}, output, nil
}

// handleCreateSession handles the create_picker_session tool
func (s *Server) handleCreateSession(ctx context.Context, req *mcp.CallToolRequest, input CreateSessionInput) (*mcp.CallToolResult, CreateSessionOutput, error) {
	session, err := s.picker.CreateSession(ctx)
	if err != nil {
		return nil, CreateSessionOutput{}, fmt.Errorf("create picker session: %w", err)
	}

	output := CreateSessionOutput{
		SessionID:    session.ID,
		PickerURI:    session.PickerURI,
		PollInterval: session.PollingConfig.PollInterval,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Session %s created. Ask the user to pick photos at %s", session.ID, session.PickerURI)},
		},
	}, output, nil
}

// handlePollSession handles the poll_picker_session tool
func (s *Server) handlePollSession(ctx context.Context, req *mcp.CallToolRequest, input PollSessionInput) (*mcp.CallToolResult, PollSessionOutput, error) {
	if input.SessionID == "" {
		return nil, PollSessionOutput{}, fmt.Errorf("session_id is required")
	}

	session, err := s.picker.PollSession(ctx, input.SessionID)
	if err != nil {
		return nil, PollSessionOutput{}, fmt.Errorf("poll picker session: %w", err)
	}

	output := PollSessionOutput{
		SessionID:     session.ID,
		MediaItemsSet: session.MediaItemsSet,
		PollInterval:  session.PollingConfig.PollInterval,
	}
	message := "Selection not finished yet"
	if session.MediaItemsSet {
		message = "Selection complete, photos can be fetched"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}, output, nil
}

// handleFetchPhotos handles the fetch_picker_photos tool
func (s *Server) handleFetchPhotos(ctx context.Context, req *mcp.CallToolRequest, input FetchPhotosInput) (*mcp.CallToolResult, FetchPhotosOutput, error) {
	if input.SessionID == "" {
		return nil, FetchPhotosOutput{}, fmt.Errorf("session_id is required")
	}

	records, err := s.picker.FetchPhotos(ctx, input.SessionID)
	if err != nil {
		output := FetchPhotosOutput{Error: err.Error()}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Fetch failed: %v", err)},
			},
		}, output, nil
	}

	output := FetchPhotosOutput{Success: true, Count: len(records)}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Cached %d picked photos", len(records))},
		},
	}, output, nil
}
