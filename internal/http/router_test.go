package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/urbanbyte/gestao-clientes/internal/auth"
	"github.com/urbanbyte/gestao-clientes/internal/config"
	"github.com/urbanbyte/gestao-clientes/internal/repo"
	"github.com/urbanbyte/gestao-clientes/internal/service"
	"github.com/urbanbyte/gestao-clientes/internal/storage"
)

// fakeRepo cobre todas as interfaces de repositório dos serviços, em memória.
type fakeRepo struct {
	usuarios    []repo.Usuario
	clientes    []repo.Cliente
	refreshHash map[uuid.UUID]*string
}

func (f *fakeRepo) GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error) {
	for _, u := range f.usuarios {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (f *fakeRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	for _, u := range f.usuarios {
		if u.ID == id {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (f *fakeRepo) GetUsuarioScoped(ctx context.Context, id uuid.UUID, tenantID string) (repo.Usuario, error) {
	for _, u := range f.usuarios {
		if u.ID == id && u.TenantID == tenantID {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (f *fakeRepo) InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	u := repo.Usuario{
		ID:        uuid.New(),
		TenantID:  arg.TenantID,
		Nome:      arg.Nome,
		Email:     arg.Email,
		SenhaHash: arg.SenhaHash,
		Papel:     arg.Papel,
		Ativo:     true,
	}
	f.usuarios = append(f.usuarios, u)
	return u, nil
}

func (f *fakeRepo) UpdateUsuario(ctx context.Context, id uuid.UUID, tenantID string, arg repo.UpdateUsuarioParams) (repo.Usuario, error) {
	for i, u := range f.usuarios {
		if u.ID == id && u.TenantID == tenantID {
			f.usuarios[i].Nome = arg.Nome
			f.usuarios[i].Email = arg.Email
			return f.usuarios[i], nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (f *fakeRepo) DeactivateUsuario(ctx context.Context, id uuid.UUID, tenantID string) error {
	for i, u := range f.usuarios {
		if u.ID == id && u.TenantID == tenantID {
			f.usuarios[i].Ativo = false
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeRepo) ListUsuarios(ctx context.Context, filtro repo.FiltroUsuarios) ([]repo.Usuario, int64, error) {
	var out []repo.Usuario
	for _, u := range f.usuarios {
		if u.TenantID == filtro.TenantID {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, hash *string) error {
	if f.refreshHash == nil {
		f.refreshHash = make(map[uuid.UUID]*string)
	}
	f.refreshHash[userID] = hash
	return nil
}

func (f *fakeRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, presentedHash, newHash string) error {
	atual := f.refreshHash[userID]
	if atual == nil || *atual != presentedHash {
		return repo.ErrRefreshStale
	}
	f.refreshHash[userID] = &newHash
	return nil
}

func (f *fakeRepo) GetCliente(ctx context.Context, id uuid.UUID, tenantID string) (repo.Cliente, error) {
	for _, c := range f.clientes {
		if c.ID == id && c.TenantID == tenantID {
			return c, nil
		}
	}
	return repo.Cliente{}, repo.ErrNotFound
}

func (f *fakeRepo) InsertCliente(ctx context.Context, arg repo.InsertClienteParams) (repo.Cliente, error) {
	c := repo.Cliente{
		ID:        uuid.New(),
		TenantID:  arg.TenantID,
		PublicID:  int64(len(f.clientes) + 1),
		Nome:      arg.Nome,
		Email:     arg.Email,
		Ativo:     arg.Ativo,
		Contato:   arg.Contato,
		Endereco:  arg.Endereco,
		ImagemURL: arg.ImagemURL,
	}
	f.clientes = append(f.clientes, c)
	return c, nil
}

func (f *fakeRepo) UpdateCliente(ctx context.Context, id uuid.UUID, tenantID string, arg repo.UpdateClienteParams) (repo.Cliente, error) {
	for i, c := range f.clientes {
		if c.ID == id && c.TenantID == tenantID {
			f.clientes[i].Nome = arg.Nome
			f.clientes[i].Email = arg.Email
			f.clientes[i].Ativo = arg.Ativo
			return f.clientes[i], nil
		}
	}
	return repo.Cliente{}, repo.ErrNotFound
}

func (f *fakeRepo) DeactivateCliente(ctx context.Context, id uuid.UUID, tenantID string) error {
	for i, c := range f.clientes {
		if c.ID == id && c.TenantID == tenantID {
			f.clientes[i].Ativo = false
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeRepo) ListClientes(ctx context.Context, filtro repo.FiltroClientes) ([]repo.Cliente, int64, error) {
	var out []repo.Cliente
	for _, c := range f.clientes {
		if c.TenantID == filtro.TenantID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) CountClientes(ctx context.Context, tenantID string) (int64, int64, error) {
	var total, ativos int64
	for _, c := range f.clientes {
		if c.TenantID == tenantID {
			total++
			if c.Ativo {
				ativos++
			}
		}
	}
	return total, ativos, nil
}

type noRedis struct{}

func (noRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (noRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (noRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(0)
	return cmd
}

type testEnv struct {
	handler http.Handler
	repo    *fakeRepo
	jwt     *auth.JWTManager
	admin   repo.Usuario
	guest   repo.Usuario
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := auth.Hash("121212")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	fake := &fakeRepo{usuarios: []repo.Usuario{
		{ID: uuid.New(), TenantID: "1", Nome: "Admin", Email: "admin@mail.com", SenhaHash: hash, Papel: "ADMIN", Ativo: true},
		{ID: uuid.New(), TenantID: "1", Nome: "Guest", Email: "guest@mail.com", SenhaHash: hash, Papel: "GUEST", Ativo: true},
	}}

	jwtMgr := auth.NewJWTManager(strings.Repeat("t", 32), time.Minute, time.Hour)

	cfg := &config.Config{
		Port:            8080,
		JWTSecret:       strings.Repeat("t", 32),
		JWTAccessTTL:    time.Minute,
		JWTRefreshTTL:   time.Hour,
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Upload: config.UploadConfig{
			MaxBytes:     1 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		},
	}

	svcs := Services{
		Auth:     service.NewAuthService(fake, noRedis{}, jwtMgr),
		Usuarios: service.NewUsuarioService(fake),
		Clientes: service.NewClienteService(fake, storage.NoopUploader{}, service.UploadPolicy{
			MaxBytes:     cfg.Upload.MaxBytes,
			AllowedTypes: cfg.Upload.AllowedTypes,
		}),
		Dashboard: service.NewDashboardService(fake),
	}

	handler, err := NewRouter(cfg, nil, nil, svcs, storage.NoopUploader{})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	return &testEnv{
		handler: handler,
		repo:    fake,
		jwt:     jwtMgr,
		admin:   fake.usuarios[0],
		guest:   fake.usuarios[1],
	}
}

func (env *testEnv) bearerFor(t *testing.T, u repo.Usuario) string {
	t.Helper()
	token, err := env.jwt.GenerateAccessToken(auth.Identity{
		Subject:  u.ID.String(),
		TenantID: u.TenantID,
		Papel:    u.Papel,
		Nome:     u.Nome,
		Email:    u.Email,
	})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func (env *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (json.RawMessage, *ErrorBody) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("resposta não é o envelope esperado: %v (%s)", err, rec.Body.String())
	}
	return envelope.Data, envelope.Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("esperava 200, obteve %d", rec.Code)
	}
}

func TestLoginERefreshFlow(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"email":"admin@mail.com","password":"121212"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: esperava 200, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	data, errBody := decodeEnvelope(t, rec)
	if errBody != nil {
		t.Fatalf("login não deveria ter erro: %+v", errBody)
	}

	var pair service.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("par de tokens incompleto: %s", data)
	}

	refreshBody := fmt.Sprintf(`{"refreshToken":%q}`, pair.RefreshToken)
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/auth/refresh", strings.NewReader(refreshBody))
	req.Header.Set("Content-Type", "application/json")

	rec = env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: esperava 200, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	// O mesmo refresh não vale duas vezes.
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/auth/refresh", strings.NewReader(refreshBody))
	req.Header.Set("Content-Type", "application/json")

	rec = env.do(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh repetido: esperava 401, obteve %d", rec.Code)
	}
}

func TestLoginSenhaErrada(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"email":"admin@mail.com","password":"errada"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, obteve %d", rec.Code)
	}

	_, errBody := decodeEnvelope(t, rec)
	if errBody == nil || errBody.Code != "AUTH" {
		t.Fatalf("esperava code AUTH, obteve %+v", errBody)
	}
}

func TestProfileExigeBearer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sem token: esperava 401, obteve %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	req.Header.Set("Authorization", env.bearerFor(t, env.admin))

	rec = env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("com token: esperava 200, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)
	var perfil service.Perfil
	if err := json.Unmarshal(data, &perfil); err != nil {
		t.Fatalf("perfil: %v", err)
	}
	if perfil.Email != "admin@mail.com" || perfil.Papel != "ADMIN" || perfil.TenantID != "1" {
		t.Fatalf("perfil inesperado: %+v", perfil)
	}
}

func TestGuestNaoCriaCliente(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := clienteMultipart(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", env.bearerFor(t, env.guest))

	rec := env.do(t, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperava 403, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	_, errBody := decodeEnvelope(t, rec)
	if errBody == nil || errBody.Code != "FORBIDDEN" {
		t.Fatalf("esperava code FORBIDDEN, obteve %+v", errBody)
	}
	if len(env.repo.clientes) != 0 {
		t.Fatal("guard deveria barrar antes do serviço")
	}
}

func TestGuestAindaLeClientes(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clientes", nil)
	req.Header.Set("Authorization", env.bearerFor(t, env.guest))

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("leitura deveria ser liberada para GUEST: %d", rec.Code)
	}
}

func TestAdminCriaClienteMultipart(t *testing.T) {
	env := newTestEnv(t)

	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	body, contentType := clienteMultipart(t, png)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", env.bearerFor(t, env.admin))

	rec := env.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("esperava 201, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)
	var dto service.ClienteDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		t.Fatalf("dto: %v", err)
	}
	if dto.TenantID != "1" {
		t.Fatalf("tenant deveria vir da sessão: %s", dto.TenantID)
	}
	if dto.ImagemURL == nil || !strings.HasPrefix(*dto.ImagemURL, "/clientes/") {
		t.Fatalf("imageUrl inesperada: %v", dto.ImagemURL)
	}
	if dto.Endereco.City != "Valença" {
		t.Fatalf("endereço deveria vir do campo address: %+v", dto.Endereco)
	}
}

func TestUserNaoCriaUsuarioMasLista(t *testing.T) {
	env := newTestEnv(t)

	// promove o guest a USER para o cenário
	env.repo.usuarios[1].Papel = "USER"
	user := env.repo.usuarios[1]

	payload := `{"name":"Novo","email":"novo@mail.com","password":"121212","role":"USER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", env.bearerFor(t, user))

	rec := env.do(t, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("USER não deveria criar usuários: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", env.bearerFor(t, user))

	rec = env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("USER deveria listar usuários: %d", rec.Code)
	}
}

func TestAdminCriaUsuarioEEnvelopePaginado(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"name":"Novo","email":"novo@mail.com","password":"121212","role":"USER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", env.bearerFor(t, env.admin))

	rec := env.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("esperava 201, obteve %d (%s)", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users?page=1&limit=10", nil)
	req.Header.Set("Authorization", env.bearerFor(t, env.admin))

	rec = env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listar: %d", rec.Code)
	}

	data, _ := decodeEnvelope(t, rec)
	var page service.UsuariosPage
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Meta.Total != 3 || page.Meta.TotalPages != 1 {
		t.Fatalf("meta inesperada: %+v", page.Meta)
	}
}

func TestPermissionsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/permissions", nil)
	req.Header.Set("Authorization", env.bearerFor(t, env.guest))

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("esperava 200, obteve %d", rec.Code)
	}

	data, _ := decodeEnvelope(t, rec)
	var payload struct {
		Role        string                     `json:"role"`
		Permissions map[string]map[string]bool `json:"permissions"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Role != "GUEST" {
		t.Fatalf("role inesperada: %s", payload.Role)
	}
	if payload.Permissions["clientes"]["CREATE"] {
		t.Fatal("GUEST não deveria criar clientes")
	}
	if !payload.Permissions["clientes"]["READ"] {
		t.Fatal("GUEST deveria ler clientes")
	}
}

func TestDashboardKPIs(t *testing.T) {
	env := newTestEnv(t)
	env.repo.clientes = []repo.Cliente{
		{ID: uuid.New(), TenantID: "1", Ativo: true},
		{ID: uuid.New(), TenantID: "1", Ativo: false},
		{ID: uuid.New(), TenantID: "2", Ativo: true},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/kpis", nil)
	req.Header.Set("Authorization", env.bearerFor(t, env.admin))

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("esperava 200, obteve %d", rec.Code)
	}

	data, _ := decodeEnvelope(t, rec)
	var kpis service.KPIs
	if err := json.Unmarshal(data, &kpis); err != nil {
		t.Fatalf("kpis: %v", err)
	}
	if kpis.TotalClientes != 2 || kpis.TotalClientesAtivos != 1 {
		t.Fatalf("kpis deveriam ser do tenant da sessão: %+v", kpis)
	}
	if kpis.PercentualClientesAtivos != 50 {
		t.Fatalf("percentual esperado 50, obteve %v", kpis.PercentualClientesAtivos)
	}
}

// clienteMultipart monta o formulário de cliente; png nil omite o arquivo.
func clienteMultipart(t *testing.T, png []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	_ = w.WriteField("name", "Cliente Teste")
	_ = w.WriteField("email", "cliente@mail.com")
	_ = w.WriteField("contact", "(75) 99999-0000")
	_ = w.WriteField("isActive", "true")
	_ = w.WriteField("address", `{"zip_code":"45400-000","street":"Rua A","number":"10","city":"Valença","state":"BA"}`)

	if png != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="imageUrl"; filename="foto.png"`)
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("multipart: %v", err)
		}
		if _, err := part.Write(png); err != nil {
			t.Fatalf("multipart write: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}

	return &buf, w.FormDataContentType()
}
