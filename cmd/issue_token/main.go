// issue_token emite un Bearer token para un operador del libro.
// El código de usuario del token es el que consulta la lista de administradores.
//
// Uso: go run ./cmd/issue_token -user u-0001 -role operator [-minutes 480]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/jwt"
)

func main() {
	userCode := flag.String("user", "", "código único del usuario (obligatorio)")
	role := flag.String("role", "operator", "admin | operator | viewer")
	minutes := flag.Int("minutes", 0, "vigencia en minutos; 0 = JWT_EXPIRATION_MINUTES")
	flag.Parse()

	if *userCode == "" {
		fmt.Fprintln(os.Stderr, "falta -user")
		os.Exit(2)
	}
	switch *role {
	case "admin", "operator", "viewer":
	default:
		fmt.Fprintf(os.Stderr, "rol desconocido %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, *userCode, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	if cfg.Stock.IsAdmin(*userCode) {
		fmt.Fprintln(os.Stderr, "aviso: el usuario está en STOCK_ADMIN_USER_CODES y puede despachar leña no seca")
	}
	fmt.Println(tok)
}
