package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"import-service/internal/api/middleware"
	"import-service/internal/api/responses"
	"import-service/internal/core/duplicate"
	"import-service/internal/core/importer"
	"import-service/internal/core/investment"
	"import-service/internal/core/normalize"
	"import-service/internal/core/statement"
	"import-service/internal/domain"
	"import-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var allowedStatementExt = map[string]bool{
	".ofx": true, ".qfx": true, ".csv": true, ".txt": true,
	".xlsx": true, ".xls": true, ".pdf": true,
}

var allowedInvestmentExt = map[string]bool{
	".xlsx": true, ".xls": true, ".csv": true, ".txt": true, ".pdf": true,
}

var errTooLarge = errors.New("arquivo acima do limite")

// Config do handler de importação.
type Config struct {
	MaxUploadSizeBytes int64
	CacheTTL           time.Duration
	DefaultPolicy      importer.Policy
	Logger             *zap.Logger
}

// ImportHandler lida com as requisições de importação de extratos e investimentos.
type ImportHandler struct {
	service   importer.Service
	cache     *cache.Cache
	maxUpload int64
	policy    importer.Policy
	logger    *zap.Logger
}

// NewImportHandler cria um novo handler de importação.
func NewImportHandler(service importer.Service, cfg Config) *ImportHandler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = importer.PolicyFlag
	}
	return &ImportHandler{
		service:   service,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		maxUpload: cfg.MaxUploadSizeBytes,
		policy:    cfg.DefaultPolicy,
		logger:    cfg.Logger,
	}
}

// RegisterRoutes registra as rotas de importação no grupo /api/v1.
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/statement", h.HandleStatement)
	rg.POST("/import/investments", h.HandleInvestments)
	rg.POST("/import/brokerage-note", h.HandleBrokerageNote)
	rg.POST("/duplicates/check", h.HandleDuplicateCheck)
	rg.POST("/transactions/commit", h.HandleCommit)
	rg.GET("/transactions", h.HandleListTransactions)
}

type upload struct {
	filename string
	data     []byte
}

// readUpload lê o campo "file" respeitando o limite de tamanho.
func (h *ImportHandler) readUpload(c *gin.Context, allowed map[string]bool) (*upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo não encontrado ou inválido")
		return nil, false
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo não suportada: %s", ext))
		return nil, false
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		responses.Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Arquivo maior que o limite de %d MB", h.maxUpload>>20))
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo")
		return nil, false
	}
	defer f.Close()

	data, err := readLimited(f, h.maxUpload)
	if errors.Is(err, errTooLarge) {
		responses.Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Arquivo maior que o limite de %d MB", h.maxUpload>>20))
		return nil, false
	}
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível ler o arquivo")
		return nil, false
	}
	return &upload{filename: fh.Filename, data: data}, true
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

// cacheKey identifica um parse pelo tipo, parâmetros e conteúdo.
func cacheKey(kind string, data []byte, params ...string) string {
	sum := sha256.New()
	sum.Write([]byte(kind))
	for _, p := range params {
		sum.Write([]byte{0})
		sum.Write([]byte(p))
	}
	sum.Write([]byte{0})
	sum.Write(data)
	return kind + ":" + hex.EncodeToString(sum.Sum(nil))
}

// parseStatement lê o extrato do formulário, usando o cache por conteúdo.
// O resultado em cache é compartilhado; quem for alterá-lo precisa copiar.
func (h *ImportHandler) parseStatement(c *gin.Context) (*domain.ParseResult, bool) {
	up, ok := h.readUpload(c, allowedStatementExt)
	if !ok {
		return nil, false
	}
	bank := c.PostForm("bank")
	src := domain.SourceType(strings.ToLower(c.PostForm("sourceType")))
	if src != "" && src != domain.SourceExtrato && src != domain.SourceFatura {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Tipo de origem inválido: %s", src))
		return nil, false
	}
	password := c.PostForm("password")

	key := cacheKey("statement", up.data, strings.ToLower(filepath.Ext(up.filename)), bank, string(src), password)
	if cached, found := h.cache.Get(key); found {
		h.logger.Debug("extrato em cache", zap.String("file", up.filename))
		return cached.(*domain.ParseResult), true
	}

	result := statement.ParseBytes(up.filename, up.data, statement.Options{
		Bank:       bank,
		SourceType: src,
		Password:   password,
		Logger:     h.logger,
	})
	h.cache.SetDefault(key, result)
	return result, true
}

func copyResult(r *domain.ParseResult) *domain.ParseResult {
	out := *r
	out.Transactions = append([]domain.ParsedTransaction{}, r.Transactions...)
	out.Errors = append([]string{}, r.Errors...)
	return &out
}

// HandleStatement lê um extrato ou fatura e marca prováveis duplicatas do que
// o usuário já tem gravado. Nada é gravado.
func (h *ImportHandler) HandleStatement(c *gin.Context) {
	parsed, ok := h.parseStatement(c)
	if !ok {
		return
	}
	result := copyResult(parsed)
	checks, err := h.service.CheckDuplicates(c.Request.Context(), middleware.Owner(c), result.Transactions)
	if err != nil {
		h.logger.Error("falha ao verificar duplicatas", zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao verificar duplicatas", err.Error())
		return
	}
	for i := range result.Transactions {
		result.Transactions[i].IsPossibleDuplicate = checks[i].IsDuplicate
		result.Transactions[i].DuplicateOfID = checks[i].MatchingTransactionID
	}
	responses.Success(c, result, summary(result.SuccessCount, result.ErrorCount))
}

func summary(ok, failed int) string {
	switch {
	case ok == 0 && failed > 0:
		return "Nenhum registro importado"
	case failed > 0:
		return fmt.Sprintf("%d registro(s) lido(s), %d com erro", ok, failed)
	}
	return fmt.Sprintf("%d registro(s) lido(s)", ok)
}

func (h *ImportHandler) policyFrom(c *gin.Context) (importer.Policy, bool) {
	raw := c.PostForm("policy")
	if raw == "" {
		return h.policy, true
	}
	p, err := importer.ParsePolicy(raw)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return p, true
}

// HandleCommit lê o extrato e grava as transações aceitas.
func (h *ImportHandler) HandleCommit(c *gin.Context) {
	policy, ok := h.policyFrom(c)
	if !ok {
		return
	}
	parsed, ok := h.parseStatement(c)
	if !ok {
		return
	}
	report, err := h.service.ImportTransactions(c.Request.Context(), middleware.Owner(c), parsed, importer.Options{Policy: policy})
	if err != nil {
		h.logger.Error("falha ao importar transações", zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao gravar as transações", err.Error())
		return
	}
	responses.Success(c, gin.H{"result": parsed, "report": report},
		fmt.Sprintf("%d transação(ões) gravada(s)", len(report.Created)))
}

func commitRequested(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.PostForm("commit"))
	return v
}

// HandleInvestments lê uma planilha ou CSV de corretora/consolidador. Com
// commit=true grava as operações.
func (h *ImportHandler) HandleInvestments(c *gin.Context) {
	up, ok := h.readUpload(c, allowedInvestmentExt)
	if !ok {
		return
	}
	source := c.PostForm("source")
	password := c.PostForm("password")

	key := cacheKey("investments", up.data, strings.ToLower(filepath.Ext(up.filename)), source, password)
	var result *domain.InvestmentParseResult
	if cached, found := h.cache.Get(key); found {
		result = cached.(*domain.InvestmentParseResult)
	} else {
		result = investment.ParseFile(up.filename, up.data, investment.Options{
			Source:   source,
			Password: password,
			Logger:   h.logger,
		})
		h.cache.SetDefault(key, result)
	}

	h.respondOperations(c, result, result)
}

// HandleBrokerageNote lê um PDF de operações: nota SINACOR, confirmação da
// Avenue ou da Inter Global, Activity Statement da IBKR ou, sem layout
// conhecido, a leitura genérica. O campo source força o layout.
func (h *ImportHandler) HandleBrokerageNote(c *gin.Context) {
	up, ok := h.readUpload(c, map[string]bool{".pdf": true})
	if !ok {
		return
	}
	source := c.PostForm("source")
	password := c.PostForm("password")

	key := cacheKey("note", up.data, source, password)
	var note *domain.BrokerageNote
	if cached, found := h.cache.Get(key); found {
		note = cached.(*domain.BrokerageNote)
	} else {
		note = investment.ParsePDF(up.data, investment.Options{Source: source, Password: password, Logger: h.logger})
		h.cache.SetDefault(key, note)
	}

	h.respondOperations(c, note, &note.InvestmentParseResult)
}

func (h *ImportHandler) respondOperations(c *gin.Context, payload interface{}, result *domain.InvestmentParseResult) {
	msg := summary(result.SuccessCount, result.ErrorCount)
	if !commitRequested(c) {
		responses.Success(c, payload, msg)
		return
	}
	policy, ok := h.policyFrom(c)
	if !ok {
		return
	}
	report, err := h.service.ImportOperations(c.Request.Context(), middleware.Owner(c), result, importer.Options{Policy: policy})
	if err != nil {
		h.logger.Error("falha ao importar operações", zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao gravar as operações", err.Error())
		return
	}
	responses.Success(c, gin.H{"result": payload, "report": report},
		fmt.Sprintf("%d operação(ões) gravada(s)", len(report.Created)))
}

// DuplicateCheckRequest é o corpo de POST /duplicates/check. Sem Existing,
// compara com as transações gravadas do usuário.
type DuplicateCheckRequest struct {
	Candidates []domain.ParsedTransaction `json:"candidates" binding:"required"`
	Existing   []domain.StoredTransaction `json:"existing"`
}

// HandleDuplicateCheck verifica candidatas contra uma lista ou contra o store.
func (h *ImportHandler) HandleDuplicateCheck(c *gin.Context) {
	var req DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Corpo da requisição inválido", err.Error())
		return
	}

	var results []domain.DuplicateCheckResult
	if req.Existing != nil {
		results = duplicate.Annotate(req.Candidates, req.Existing)
	} else {
		var err error
		results, err = h.service.CheckDuplicates(c.Request.Context(), middleware.Owner(c), req.Candidates)
		if err != nil {
			h.logger.Error("falha ao verificar duplicatas", zap.Error(err))
			responses.Error(c, http.StatusInternalServerError, "Erro ao verificar duplicatas", err.Error())
			return
		}
	}

	found := 0
	for _, r := range results {
		if r.IsDuplicate {
			found++
		}
	}
	responses.Success(c, results, fmt.Sprintf("%d possível(is) duplicata(s)", found))
}

// HandleListTransactions lista as transações gravadas do usuário.
func (h *ImportHandler) HandleListTransactions(c *gin.Context) {
	var f store.Filter
	if v := c.Query("from"); v != "" {
		d, ok := normalize.ParseDate(v)
		if !ok {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Data inicial inválida: %s", v))
			return
		}
		f.DateFrom = d
	}
	if v := c.Query("to"); v != "" {
		d, ok := normalize.ParseDate(v)
		if !ok {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Data final inválida: %s", v))
			return
		}
		f.DateTo = d
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Parâmetro %s inválido: %s", name, v))
			return
		}
		*dst = n
	}

	page, err := h.service.ListTransactions(c.Request.Context(), middleware.Owner(c), f)
	if err != nil {
		h.logger.Error("falha ao listar transações", zap.Error(err))
		responses.Error(c, http.StatusInternalServerError, "Erro ao listar transações", err.Error())
		return
	}
	responses.Success(c, page, "")
}
