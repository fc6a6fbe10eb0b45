package main

import (
	"context"
	"os"

	"contatask/cmd/internal/domain/period"
	"contatask/cmd/internal/domain/policy"
	"contatask/cmd/internal/domain/sqlite"
	"contatask/cmd/internal/domain/sqlite/repository"
	handler2 "contatask/cmd/internal/http/handler"
	authmw "contatask/cmd/internal/http/middleware"
	"contatask/cmd/internal/service"
	"contatask/cmd/internal/utils"
	"contatask/cmd/internal/validators"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const envVarsPrefix = "/contatask/prod/"

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	if err := utils.InitJWT(os.Getenv("JWT_SECRET")); err != nil {
		panic(err)
	}

	// Init SQLite
	db, err := sqlite.Init()
	if err != nil {
		panic(err)
	}

	clock := period.SystemClock{}
	acesso := policy.NewAcessoPolicy()

	// Getting services
	usuarioService := service.NewUsuarioService(db, acesso, validate)
	empresaService := service.NewEmpresaService(db, acesso, validate)
	tarefaService := service.NewTarefaService(db, clock, acesso, validate)
	transicaoService := service.NewTransicaoService(db, clock, acesso, validate)
	mudancaService := service.NewMudancaService(db, clock, acesso, validate)
	periodoService := service.NewPeriodoService(db, clock, acesso, validate)

	// Getting handlers
	usuarioRoutes := handler2.NewUsuarioDefault(usuarioService)
	empresaRoutes := handler2.NewEmpresaDefault(empresaService, transicaoService)
	tarefaRoutes := handler2.NewTarefaDefault(tarefaService)
	mudancaRoutes := handler2.NewMudancaDefault(mudancaService)
	periodoRoutes := handler2.NewPeriodoDefault(periodoService)

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("2M"))

	// Public
	e.POST("/api/auth/login", usuarioRoutes.Login)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	api := e.Group("/api", authmw.NewAuthMiddleware(&authmw.AuthMiddlewareConfig{
		UsuarioRepo: repository.NewUsuarioRepository(db),
	}))

	// Staff
	api.GET("/usuarios", usuarioRoutes.GetUsuarios)
	api.POST("/usuarios", usuarioRoutes.CreateUsuario)
	api.DELETE("/usuarios/:id", usuarioRoutes.DeactivateUsuario)

	// Companies and regimes
	api.GET("/empresas", empresaRoutes.GetEmpresas)
	api.GET("/empresas/:id", empresaRoutes.GetEmpresa)
	api.POST("/empresas", empresaRoutes.CreateEmpresa)
	api.DELETE("/empresas/:id", empresaRoutes.DeactivateEmpresa)
	api.GET("/empresas/:id/vinculacoes", empresaRoutes.GetVinculacoes)
	api.POST("/empresas/:id/tributacao", empresaRoutes.TransitionRegime)
	api.GET("/tributacoes", empresaRoutes.GetTributacoes)
	api.GET("/setores", empresaRoutes.GetSetores)

	// Task definitions
	api.GET("/tarefas", tarefaRoutes.GetTarefas)
	api.POST("/tarefas", tarefaRoutes.CreateTarefa)
	api.POST("/tarefas/catalogo", tarefaRoutes.AddCatalogo)
	api.POST("/tarefas/vincular", tarefaRoutes.VincularTarefa)

	// Regime-change review
	api.GET("/mudancas", mudancaRoutes.GetMudancas)
	api.GET("/mudancas/:id/tarefas", mudancaRoutes.GetMudancaTarefas)
	api.POST("/mudancas/:id/atribuir", mudancaRoutes.AtribuirTarefas)
	api.POST("/mudancas/:id/desativar", mudancaRoutes.DesativarTarefas)
	api.POST("/mudancas/:id/concluir", mudancaRoutes.ConcluirMudanca)
	api.POST("/mudancas/:id/cancelar", mudancaRoutes.CancelarMudanca)

	// Period instances
	api.POST("/periodos/gerar", periodoRoutes.GerarPeriodos)
	api.GET("/periodos", periodoRoutes.GetPeriodos)
	api.POST("/periodos/:id/iniciar", periodoRoutes.IniciarPeriodo)
	api.POST("/periodos/:id/concluir", periodoRoutes.ConcluirPeriodo)
	api.POST("/periodos/:id/retificar", periodoRoutes.RetificarPeriodo)
	api.POST("/periodos/:id/reabrir", periodoRoutes.ReabrirPeriodo)
	api.GET("/resumo", periodoRoutes.GetResumo)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("periodo", validators.Periodo)
	_ = validate.RegisterValidation("nodupes", validators.NoDupes)
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
