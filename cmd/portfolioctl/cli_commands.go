// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
)

var (
	rootCmd = &cobra.Command{
		Use:   "portfolioctl",
		Short: "A CLI to manage the portfolio service",
		Long: `portfolioctl talks to a running portfolio service: create and
inspect portfolio documents, apply patch batches, generate AI suggestions
from source text, and seed demo content.`,
	}

	serverURL string
	userID    string

	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an empty portfolio for the configured user",
		Run:   runCreateCommand,
	}

	getCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the user's portfolio document",
		Run:   runGetCommand,
	}

	applyCmd = &cobra.Command{
		Use:   "apply [updates.json]",
		Short: "Apply a patch batch from a JSON file",
		Long: `Reads a JSON file with the shape {"updates": [{"field": ..., "value": ...}]}
and sends it to the apply endpoint. The refreshed document is printed on success.`,
		Args: cobra.ExactArgs(1),
		Run:  runApplyCommand,
	}
	verifyExpected bool

	suggestCmd = &cobra.Command{
		Use:   "suggest [targetPath]",
		Short: "Generate patch suggestions for a portfolio section",
		Args:  cobra.ExactArgs(1),
		Run:   runSuggestCommand,
	}
	suggestText   string
	suggestResume bool

	deleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete the user's portfolio",
		Run:   runDeleteCommand,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create a portfolio populated with demo content",
		Run:   runSeedCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Portfolio service base URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User to operate on")
	applyCmd.Flags().BoolVar(&verifyExpected, "verify-expected", false,
		"Reject the batch if any expectedCurrent no longer matches")
	suggestCmd.Flags().StringVar(&suggestText, "text", "", "Inline source text")
	suggestCmd.Flags().BoolVar(&suggestResume, "resume", false, "Use the stored resume as source text")

	rootCmd.AddCommand(createCmd, getCmd, applyCmd, suggestCmd, deleteCmd, seedCmd)
}

// doRequest sends an authenticated request and decodes the JSON response.
func doRequest(method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.ServerURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+config.APIToken)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
		}
	}
	if resp.StatusCode >= 300 {
		return decoded, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return decoded, nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render response: %v", err)
	}
	fmt.Println(string(data))
}

func mustUserID() string {
	if config.UserID == "" {
		log.Fatal("No user configured. Set user_id in portfolioctl.yaml or pass --user.")
	}
	return config.UserID
}

func runCreateCommand(cmd *cobra.Command, args []string) {
	doc, err := doRequest(http.MethodPost, "/v1/portfolios", map[string]any{
		"userId": mustUserID(),
	})
	if err != nil {
		log.Fatalf("Create failed: %v", err)
	}
	logger.Info("Created portfolio", "user_id", config.UserID)
	printJSON(doc)
}

func runGetCommand(cmd *cobra.Command, args []string) {
	doc, err := doRequest(http.MethodGet, "/v1/portfolios/"+mustUserID(), nil)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	printJSON(doc)
}

func runApplyCommand(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("Failed to read %s: %v", args[0], err)
	}

	var req datatypes.ApplyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("Failed to parse %s: %v", args[0], err)
	}
	req.VerifyExpected = verifyExpected

	doc, err := doRequest(http.MethodPatch,
		"/v1/portfolio/apply?userId="+mustUserID(), req)
	if err != nil {
		log.Fatalf("Apply failed: %v", err)
	}
	logger.Info("Applied patch batch", "updates", len(req.Updates))
	printJSON(doc)
}

func runSuggestCommand(cmd *cobra.Command, args []string) {
	if suggestText == "" && !suggestResume {
		log.Fatal("Provide --text or --resume as the source.")
	}
	resp, err := doRequest(http.MethodPost,
		"/v1/suggestions/generate?userId="+mustUserID(), map[string]any{
			"targetPath":        args[0],
			"text":              suggestText,
			"useExistingResume": suggestResume,
		})
	if err != nil {
		log.Fatalf("Suggest failed: %v", err)
	}
	printJSON(resp)
}

func runDeleteCommand(cmd *cobra.Command, args []string) {
	resp, err := doRequest(http.MethodDelete, "/v1/portfolios/"+mustUserID(), nil)
	if err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	printJSON(resp)
}
