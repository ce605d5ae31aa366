// Command export dumps one family tree — its members, relationship edges
// and projected nodes — to a JSON file, for backups or for feeding a
// standalone renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kintree/internal/config"
	"kintree/internal/database"
	"kintree/internal/models"
	"kintree/internal/repository"
	"kintree/internal/service"
)

type export struct {
	ExportedAt    time.Time                    `json:"exportedAt"`
	Tree          models.FamilyTree            `json:"tree"`
	Members       []models.Member              `json:"members"`
	Relationships []models.Relationship        `json:"relationships"`
	Nodes         map[int64]*models.TreeNode   `json:"nodes"`
}

func main() {
	treeID := flag.Int64("tree", 0, "Tree ID to export (required)")
	output := flag.String("output", "", "Output file path (default: tree_<id>_<timestamp>.json)")
	flag.Parse()

	if *treeID == 0 {
		fmt.Println("Error: -tree flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	treeRepo := repository.NewTreeRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	relRepo := repository.NewRelationshipRepository(db)

	tree, err := treeRepo.GetTreeByID(*treeID)
	if err != nil {
		log.Fatalf("Failed to load tree: %v", err)
	}
	if tree == nil {
		log.Fatalf("Tree %d not found", *treeID)
	}

	members, err := memberRepo.GetTreeMembers(*treeID)
	if err != nil {
		log.Fatalf("Failed to load members: %v", err)
	}
	rels, err := relRepo.GetTreeRelationships(*treeID)
	if err != nil {
		log.Fatalf("Failed to load relationships: %v", err)
	}

	data := export{
		ExportedAt:    time.Now(),
		Tree:          *tree,
		Members:       members,
		Relationships: rels,
		Nodes:         service.BuildProjection(members, rels, service.ProjectionOptions{}),
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("tree_%d_%s.json", *treeID, time.Now().Format("20060102_150405"))
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Exported tree %d (%d members, %d edges) to %s", *treeID, len(members), len(rels), path)
}
