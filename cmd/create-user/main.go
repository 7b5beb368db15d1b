package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sistema_pip_go/config"
	"sistema_pip_go/db"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Criar Novo Usuário ===")
	fmt.Println()

	fmt.Print("Nome: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Usuário (login): ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Printf("Perfil (%s, %s ou %s): ", models.RoleAdmin, models.RoleInvestigator, models.RoleReadOnly)
	role, _ := reader.ReadString('\n')
	role = strings.TrimSpace(role)

	// Get password securely
	fmt.Print("Senha: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println()

	if name == "" || username == "" || password == "" {
		log.Fatal("Nome, usuário e senha são obrigatórios")
	}

	if !models.IsValidRole(role) {
		log.Fatalf("Perfil inválido: %s", role)
	}

	if len(password) < 8 {
		log.Fatal("A senha deve ter pelo menos 8 caracteres")
	}

	// Check if user already exists
	var existingUser models.User
	if err := db.DB.Where("username = ?", username).First(&existingUser).Error; err == nil {
		log.Fatalf("Usuário %s já existe", username)
	}

	// Hash password
	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     name,
		Username: username,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}

	if err := db.DB.Create(user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Usuário criado com sucesso!")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Nome: %s\n", user.Name)
	fmt.Printf("  Usuário: %s\n", user.Username)
	fmt.Printf("  Perfil: %s\n", user.Role)
}
