package processor

import (
	"context"
	"errors"
	"io"
	"sync"

	"talent-bridge-go/internal/search"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"
)

// memoryProfile 内存中的员工档案
type memoryProfile struct {
	skills     []string
	education  *string
	experience []models.ExperienceEntry
}

func (p *memoryProfile) clone() *memoryProfile {
	c := &memoryProfile{
		skills:     append([]string(nil), p.skills...),
		experience: append([]models.ExperienceEntry(nil), p.experience...),
	}
	if p.education != nil {
		v := *p.education
		c.education = &v
	}
	return c
}

// MockProfileStore 模拟事务：fn 返回错误时恢复到事务开始前的快照
type MockProfileStore struct {
	mu           sync.Mutex
	profiles     map[uint64]*memoryProfile
	outbox       []models.OutboxMessage
	failInsertAt int // 第N次插入经历时失败，0表示不失败
	txCount      int
}

func NewMockProfileStore() *MockProfileStore {
	return &MockProfileStore{profiles: make(map[uint64]*memoryProfile)}
}

func (m *MockProfileStore) addEmployee(id uint64, skills []string, education *string) {
	m.profiles[id] = &memoryProfile{skills: skills, education: education}
}

func (m *MockProfileStore) WithinProfileTx(ctx context.Context, fn func(tx storage.ProfileTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	snapshot := make(map[uint64]*memoryProfile, len(m.profiles))
	for id, p := range m.profiles {
		snapshot[id] = p.clone()
	}
	outbox := append([]models.OutboxMessage(nil), m.outbox...)

	if err := fn(&mockProfileTx{store: m}); err != nil {
		m.profiles = snapshot
		m.outbox = outbox
		return err
	}
	return nil
}

type mockProfileTx struct {
	store   *MockProfileStore
	inserts int
}

func (t *mockProfileTx) LockEmployee(ctx context.Context, employeeID uint64) error {
	if _, ok := t.store.profiles[employeeID]; !ok {
		return storage.ErrNotFound
	}
	return nil
}

func (t *mockProfileTx) ReplaceSkills(ctx context.Context, employeeID uint64, skills []string) ([]string, error) {
	names := storage.NormalizeSkills(skills)
	t.store.profiles[employeeID].skills = append([]string{}, names...)
	return names, nil
}

func (t *mockProfileTx) SetEducationLevel(ctx context.Context, employeeID uint64, level string) error {
	t.store.profiles[employeeID].education = &level
	return nil
}

func (t *mockProfileTx) InsertExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	t.inserts++
	if t.store.failInsertAt > 0 && t.inserts == t.store.failInsertAt {
		return errors.New("insert experience failed")
	}
	p := t.store.profiles[entry.EmployeeID]
	entry.ID = uint64(len(p.experience) + 1)
	p.experience = append(p.experience, *entry)
	return nil
}

func (t *mockProfileTx) EnqueueEvent(ctx context.Context, msg *models.OutboxMessage) error {
	t.store.outbox = append(t.store.outbox, *msg)
	return nil
}

// MockEmployeeStore 模拟员工读写
type MockEmployeeStore struct {
	employees map[uint64]*models.Employee
	setErr    error
}

func NewMockEmployeeStore(employees ...*models.Employee) *MockEmployeeStore {
	m := &MockEmployeeStore{employees: make(map[uint64]*models.Employee)}
	for _, e := range employees {
		m.employees[e.ID] = e
	}
	return m
}

func (m *MockEmployeeStore) GetEmployee(ctx context.Context, employeeID uint64) (*models.Employee, error) {
	e, ok := m.employees[employeeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (m *MockEmployeeStore) SetCVObjectKey(ctx context.Context, employeeID uint64, objectKey, filename string) error {
	if m.setErr != nil {
		return m.setErr
	}
	e, ok := m.employees[employeeID]
	if !ok {
		return storage.ErrNotFound
	}
	e.CVObjectKey = &objectKey
	e.CVFilename = filename
	return nil
}

// MockObjectStore 模拟对象存储，key 为 bucket/objectKey
type MockObjectStore struct {
	objects   map[string][]byte
	uploaded  []string
	deleted   []string
	uploadErr error
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string][]byte)}
}

func (m *MockObjectStore) UploadFile(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+objectKey] = data
	m.uploaded = append(m.uploaded, bucket+"/"+objectKey)
	return nil
}

func (m *MockObjectStore) DownloadFile(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	data, ok := m.objects[bucket+"/"+objectKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *MockObjectStore) DeleteFile(ctx context.Context, bucket, objectKey string) error {
	delete(m.objects, bucket+"/"+objectKey)
	m.deleted = append(m.deleted, bucket+"/"+objectKey)
	return nil
}

// MockDecoder 模拟文档解码
type MockDecoder struct {
	text     string
	err      error
	formats  []types.DocumentFormat
	payloads [][]byte
}

func (m *MockDecoder) Decode(ctx context.Context, payload []byte, format types.DocumentFormat) (string, error) {
	m.formats = append(m.formats, format)
	m.payloads = append(m.payloads, payload)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// MockExtractor 返回固定的提取结果
type MockExtractor struct {
	fragment types.ProfileFragment
	texts    []string
}

func (m *MockExtractor) Extract(text string) types.ProfileFragment {
	m.texts = append(m.texts, text)
	return m.fragment
}

// MockTemplateStore 模拟模板与生成文档的持久化
type MockTemplateStore struct {
	templates map[uint64]*models.Template
	documents []models.GeneratedDocument
	outbox    []models.OutboxMessage
	nextID    uint64
}

func NewMockTemplateStore() *MockTemplateStore {
	return &MockTemplateStore{templates: make(map[uint64]*models.Template)}
}

func (m *MockTemplateStore) CreateTemplate(ctx context.Context, tpl *models.Template) error {
	m.nextID++
	tpl.ID = m.nextID
	for i := range tpl.Variables {
		tpl.Variables[i].TemplateID = tpl.ID
		tpl.Variables[i].Position = i
	}
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *MockTemplateStore) ListActiveTemplates(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	for id := uint64(1); id <= m.nextID; id++ {
		if tpl, ok := m.templates[id]; ok && tpl.IsActive {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

func (m *MockTemplateStore) GetTemplate(ctx context.Context, templateID uint64) (*models.Template, error) {
	tpl, ok := m.templates[templateID]
	if !ok || !tpl.IsActive {
		return nil, storage.ErrNotFound
	}
	return tpl, nil
}

func (m *MockTemplateStore) SaveGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument, buildEvent func(doc *models.GeneratedDocument) (*models.OutboxMessage, error)) error {
	doc.ID = uint64(len(m.documents) + 1)
	msg, err := buildEvent(doc)
	if err != nil {
		return err
	}
	m.documents = append(m.documents, *doc)
	m.outbox = append(m.outbox, *msg)
	return nil
}

// MockEmployeeDirectory 模拟员工档案目录
type MockEmployeeDirectory struct {
	employees   map[uint64]*models.Employee
	createErr   error
	lastFilter  search.Filter
	searchCalls int
	experience  []models.ExperienceEntry
	trainings   []models.TrainingEntry
	evaluations []models.EvaluationEntry
}

func NewMockEmployeeDirectory(employees ...*models.Employee) *MockEmployeeDirectory {
	m := &MockEmployeeDirectory{employees: make(map[uint64]*models.Employee)}
	for _, e := range employees {
		m.employees[e.ID] = e
	}
	return m
}

func (m *MockEmployeeDirectory) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	if m.createErr != nil {
		return m.createErr
	}
	employee.ID = uint64(len(m.employees) + 1)
	m.employees[employee.ID] = employee
	return nil
}

func (m *MockEmployeeDirectory) GetEmployeeDetails(ctx context.Context, employeeID uint64) (*models.Employee, error) {
	e, ok := m.employees[employeeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

func (m *MockEmployeeDirectory) EmployeeExists(ctx context.Context, employeeID uint64) (bool, error) {
	_, ok := m.employees[employeeID]
	return ok, nil
}

func (m *MockEmployeeDirectory) SearchEmployees(ctx context.Context, filter search.Filter) ([]models.Employee, error) {
	m.searchCalls++
	m.lastFilter = filter
	return []models.Employee{}, nil
}

func (m *MockEmployeeDirectory) ListSkills(ctx context.Context) ([]string, error) {
	return []string{"go", "sql"}, nil
}

func (m *MockEmployeeDirectory) CreateExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	m.experience = append(m.experience, *entry)
	return nil
}

func (m *MockEmployeeDirectory) CreateTraining(ctx context.Context, entry *models.TrainingEntry) error {
	m.trainings = append(m.trainings, *entry)
	return nil
}

func (m *MockEmployeeDirectory) CreateEvaluation(ctx context.Context, entry *models.EvaluationEntry) error {
	m.evaluations = append(m.evaluations, *entry)
	return nil
}
