/*
Copyright © 2025 NEURAL SYMPHONY

serve.go runs the inference server adapter on the provisioned machine.
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/inference"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat completion server",
	Long: `Run the HTTP inference server exposing /v1/chat/completions and /health.

Two backends are available:
  vllm      forward requests to a local vLLM OpenAI-compatible server
  llamacpp  run generation through a local llama.cpp binary

With --launch-upstream the vllm backend also starts the engine process,
routing through a uvloop compatibility wrapper on platforms that need it.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Load environment variables
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}

		backendName, _ := cmd.Flags().GetString("backend")
		model, _ := cmd.Flags().GetString("model")
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		upstream, _ := cmd.Flags().GetString("upstream")
		runnerPath, _ := cmd.Flags().GetString("runner-path")
		modelPath, _ := cmd.Flags().GetString("model-path")
		launchUpstream, _ := cmd.Flags().GetBool("launch-upstream")
		pythonBin, _ := cmd.Flags().GetString("python")

		if envModel := os.Getenv("SYMPHONY_MODEL"); envModel != "" && model == config.DefaultModel {
			model = envModel
		}

		ctx := context.Background()

		var backend inference.Backend
		switch backendName {
		case "vllm":
			if launchUpstream {
				engine, err := inference.StartVLLMServer(ctx, pythonBin, "--model", model, "--port", "8001")
				if err != nil {
					log.Fatalf("Failed to launch vLLM engine: %v", err)
				}
				defer engine.Process.Kill()
			}
			backend = inference.NewVLLMBackend(upstream, model)
		case "llamacpp":
			if modelPath == "" {
				modelPath = fmt.Sprintf("./models/%s.gguf", model)
			}
			backend = inference.NewLlamaCppBackend(runnerPath, modelPath)
		default:
			log.Fatalf("Unknown backend %q (expected vllm or llamacpp)", backendName)
		}

		server := inference.NewServer(backend)

		log.Printf("Initializing %s backend with model: %s", backend.Name(), model)
		if err := server.Load(ctx); err != nil {
			log.Fatalf("Model initialization failed: %v", err)
		}
		fmt.Println("Model loaded successfully - Server ready")

		addr := fmt.Sprintf("%s:%d", host, port)
		fmt.Printf("Inference server ready on %s\n", addr)
		if err := server.Run(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("backend", "vllm", "Serving backend (vllm or llamacpp)")
	serveCmd.Flags().String("model", config.DefaultModel, "Model name to serve")
	serveCmd.Flags().String("host", config.DefaultServeHost, "Address to bind")
	serveCmd.Flags().Int("port", config.DefaultServePort, "Port to listen on")
	serveCmd.Flags().String("upstream", config.DefaultVLLMUpstream, "vLLM upstream base URL")
	serveCmd.Flags().String("runner-path", "llama-cli", "Path to the llama.cpp binary")
	serveCmd.Flags().String("model-path", "", "Path to the GGUF model file (llamacpp backend)")
	serveCmd.Flags().Bool("launch-upstream", false, "Also launch the vLLM engine process")
	serveCmd.Flags().String("python", "python3", "Python interpreter used to launch vLLM")
}
