package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const baseURL = "http://localhost:8080"

const sampleLesson = `##-TOPIC-START-##
Практическая работа №1
Уровень: База
Модуль 1. Основы Python

#-SLIDE-START-#
TITLE:: Цели занятия
- Установить интерпретатор
- Настроить окружение
Кратко разберем инструменты.

#-SLIDE-START-#
TITLE:: Первая программа
[CODE_BLOCK]
print("Привет, мир!")
[/CODE_BLOCK]
`

func main() {
	// 1. Test API health endpoint
	fmt.Println("\n=== Testing API Health ===")
	resp, err := http.Get(baseURL + "/api/health")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\nResponse: %s\n", resp.StatusCode, string(body))

	// 2. Test job upload with proper multipart form
	fmt.Println("\n=== Testing Job Upload ===")

	// Create a temporary lesson file for testing
	tempFilePath := createTempFile("lesson.txt", sampleLesson)
	defer os.Remove(tempFilePath)

	// Upload the file using multipart form
	jobID, err := uploadFile(tempFilePath)
	if err != nil {
		fmt.Printf("Error uploading file: %v\n", err)
		return
	}
	fmt.Printf("Job ID: %s\n", jobID)

	// Wait for processing (async mode needs a moment)
	time.Sleep(2 * time.Second)

	fmt.Println("\n=== Checking Job Status ===")
	statusURL := fmt.Sprintf("%s/api/jobs/%s", baseURL, jobID)
	statusResp, err := http.Get(statusURL)
	if err != nil {
		fmt.Printf("Error checking status: %v\n", err)
		return
	}
	defer statusResp.Body.Close()

	statusBody, _ := io.ReadAll(statusResp.Body)
	fmt.Printf("Status: %d\nResponse: %s\n", statusResp.StatusCode, string(statusBody))

	// 3. List generated artifacts
	fmt.Println("\n=== Listing Artifacts ===")
	artifactsURL := fmt.Sprintf("%s/api/jobs/%s/artifacts", baseURL, jobID)
	artifactsResp, err := http.Get(artifactsURL)
	if err != nil {
		fmt.Printf("Error listing artifacts: %v\n", err)
		return
	}
	defer artifactsResp.Body.Close()

	artifactsBody, _ := io.ReadAll(artifactsResp.Body)
	fmt.Printf("Status: %d\nResponse: %s\n", artifactsResp.StatusCode, string(artifactsBody))

	// 4. Download the first artifact
	fmt.Println("\n=== Downloading First Artifact ===")
	downloadURL := fmt.Sprintf("%s/api/jobs/%s/artifacts/1/download", baseURL, jobID)
	downloadResp, err := http.Get(downloadURL)
	if err != nil {
		fmt.Printf("Error downloading artifact: %v\n", err)
		return
	}
	defer downloadResp.Body.Close()

	artifactData, _ := io.ReadAll(downloadResp.Body)
	fmt.Printf("Status: %d\nContent-Type: %s\nSize: %d bytes\n",
		downloadResp.StatusCode,
		downloadResp.Header.Get("Content-Type"),
		len(artifactData))

	// 5. Delete the job and its files
	fmt.Println("\n=== Deleting Job ===")
	deleteURL := fmt.Sprintf("%s/api/jobs/%s", baseURL, jobID)
	req, err := http.NewRequest("DELETE", deleteURL, nil)
	if err != nil {
		fmt.Printf("Error creating delete request: %v\n", err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	deleteResp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error deleting job: %v\n", err)
		return
	}
	defer deleteResp.Body.Close()

	deleteBody, _ := io.ReadAll(deleteResp.Body)
	fmt.Printf("Status: %d\nResponse: %s\n", deleteResp.StatusCode, string(deleteBody))
}

// Create temporary test file
func createTempFile(filename, content string) string {
	tempDir, err := os.MkdirTemp("", "slidegen-test-")
	if err != nil {
		panic(fmt.Sprintf("Failed to create temp dir: %v", err))
	}

	filePath := filepath.Join(tempDir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		panic(fmt.Sprintf("Failed to write temp file: %v", err))
	}

	return filePath
}

// Upload file using multipart form
func uploadFile(filePath string) (string, error) {
	// Create multipart form body
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	// Add file field
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening file: %v", err)
	}
	defer file.Close()

	fileWriter, err := multipartWriter.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("error creating form file: %v", err)
	}

	if _, err = io.Copy(fileWriter, file); err != nil {
		return "", fmt.Errorf("error copying file content: %v", err)
	}

	// Add format field
	if err = multipartWriter.WriteField("format", "pptx"); err != nil {
		return "", fmt.Errorf("error adding format field: %v", err)
	}

	// Close the multipart writer to set the boundary
	if err = multipartWriter.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %v", err)
	}

	// Create and send request
	req, err := http.NewRequest("POST", baseURL+"/api/jobs", &requestBody)
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %v", err)
	}

	fmt.Printf("Status: %d\nResponse: %s\n", resp.StatusCode, string(respBody))

	// Extract job ID from response
	if resp.StatusCode == http.StatusOK {
		var result map[string]interface{}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", fmt.Errorf("error parsing JSON response: %v", err)
		}

		if data, ok := result["data"].(map[string]interface{}); ok {
			if jobID, ok := data["job_id"].(string); ok {
				return jobID, nil
			}
		}
		return "", fmt.Errorf("could not extract job ID from response")
	}

	return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
}
