package codegen

import (
	"fmt"
	"strings"

	"appforge/internal/spec"
)

func renderDatabase(s *spec.AppSpecification) string {
	var b strings.Builder
	b.WriteString("import os\n\n")
	b.WriteString("from motor.motor_asyncio import AsyncIOMotorClient\n\n")
	b.WriteString("MONGO_URL = os.environ.get(\"MONGO_URL\", \"mongodb://mongo:27017\")\n")
	fmt.Fprintf(&b, "DB_NAME = os.environ.get(\"DB_NAME\", %q)\n\n", snake(s.Name))
	b.WriteString("client = AsyncIOMotorClient(MONGO_URL)\n")
	b.WriteString("db = client[DB_NAME]\n")
	return b.String()
}

// renderTracking emits the client stub for the event-tracking collaborator.
// Tracking is fire-and-forget: a tracking failure never fails the
// operation that triggered it.
func renderTracking() string {
	var b strings.Builder
	b.WriteString("import os\n\n")
	b.WriteString("import httpx\n\n")
	b.WriteString("TRACKING_URL = os.environ.get(\"TRACKING_URL\", \"\")\n\n\n")
	b.WriteString("async def track(event: dict) -> None:\n")
	b.WriteString("    \"\"\"Send one usage event. Failures are swallowed by design: tracking\n")
	b.WriteString("    must never break the operation that emitted the event.\"\"\"\n")
	b.WriteString("    if not TRACKING_URL:\n")
	b.WriteString("        return\n")
	b.WriteString("    try:\n")
	b.WriteString("        async with httpx.AsyncClient(timeout=2.0) as client:\n")
	b.WriteString("            await client.post(TRACKING_URL, json=event)\n")
	b.WriteString("    except Exception:\n")
	b.WriteString("        pass\n")
	return b.String()
}

func renderModelSchema(m spec.DataModel) (string, error) {
	if strings.TrimSpace(m.Name) == "" {
		return "", fmt.Errorf("data model has no name")
	}
	if len(m.Fields) == 0 {
		return "", fmt.Errorf("data model %q has no fields", m.Name)
	}

	cls := pascal(m.Name)
	needsEmail := false
	needsDatetime := false
	for _, f := range m.Fields {
		switch f.Type {
		case spec.FieldEmail:
			needsEmail = true
		case spec.FieldDate, spec.FieldDatetime:
			needsDatetime = true
		}
	}

	var b strings.Builder
	b.WriteString("import uuid\n")
	if needsDatetime {
		b.WriteString("from datetime import datetime\n")
	}
	b.WriteString("from typing import Optional\n\n")
	if needsEmail {
		b.WriteString("from pydantic import BaseModel, EmailStr, Field\n\n\n")
	} else {
		b.WriteString("from pydantic import BaseModel, Field\n\n\n")
	}

	// Full shape, as stored and returned.
	fmt.Fprintf(&b, "class %s(BaseModel):\n", cls)
	if m.Description != "" {
		fmt.Fprintf(&b, "    \"\"\"%s\"\"\"\n", m.Description)
	}
	b.WriteString("    id: str = Field(default_factory=lambda: str(uuid.uuid4()))\n")
	for _, f := range m.Fields {
		line, err := pyFieldLine(m, f, false)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}

	// Creation shape: no id, required fields stay required.
	fmt.Fprintf(&b, "\n\nclass %sCreate(BaseModel):\n", cls)
	for _, f := range m.Fields {
		line, err := pyFieldLine(m, f, false)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}

	// Update shape: everything optional for partial updates.
	fmt.Fprintf(&b, "\n\nclass %sUpdate(BaseModel):\n", cls)
	for _, f := range m.Fields {
		line, err := pyFieldLine(m, f, true)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}

	return b.String(), nil
}

func pyFieldLine(m spec.DataModel, f spec.Field, forceOptional bool) (string, error) {
	typ, ok := pyType(f.Type)
	if !ok {
		return "", fmt.Errorf("field %q of model %q has unsupported type %q", f.Name, m.Name, f.Type)
	}
	name := snake(f.Name)
	if name == "" {
		return "", fmt.Errorf("model %q has a field with no name", m.Name)
	}
	if f.Required && !forceOptional {
		return fmt.Sprintf("    %s: %s\n", name, typ), nil
	}
	return fmt.Sprintf("    %s: Optional[%s] = None\n", name, typ), nil
}

func renderRoutes(m spec.DataModel) (string, error) {
	if strings.TrimSpace(m.Name) == "" {
		return "", fmt.Errorf("data model has no name")
	}
	cls := pascal(m.Name)
	mod := snake(m.Name)
	coll := Pluralize(m.Name)

	var b strings.Builder
	b.WriteString("from fastapi import APIRouter, HTTPException\n\n")
	b.WriteString("from ..database import db\n")
	b.WriteString("from ..tracking import track\n")
	fmt.Fprintf(&b, "from ..models.%s import %s, %sCreate, %sUpdate\n\n", mod, cls, cls, cls)
	fmt.Fprintf(&b, "router = APIRouter(prefix=\"/api/%s\", tags=[%q])\n\n\n", coll, coll)

	fmt.Fprintf(&b, "@router.get(\"/\")\nasync def list_%s(skip: int = 0, limit: int = 50):\n", coll)
	fmt.Fprintf(&b, "    items = await db.%s.find({}, {\"_id\": 0}).skip(skip).limit(limit).to_list(limit)\n", coll)
	fmt.Fprintf(&b, "    await track({\"event\": \"%s.list\", \"count\": len(items)})\n", mod)
	b.WriteString("    return items\n\n\n")

	fmt.Fprintf(&b, "@router.get(\"/{item_id}\")\nasync def get_%s(item_id: str):\n", mod)
	fmt.Fprintf(&b, "    item = await db.%s.find_one({\"id\": item_id}, {\"_id\": 0})\n", coll)
	b.WriteString("    if item is None:\n")
	fmt.Fprintf(&b, "        raise HTTPException(status_code=404, detail=\"%s not found\")\n", cls)
	fmt.Fprintf(&b, "    await track({\"event\": \"%s.get\", \"id\": item_id})\n", mod)
	b.WriteString("    return item\n\n\n")

	fmt.Fprintf(&b, "@router.post(\"/\", status_code=201)\nasync def create_%s(payload: %sCreate):\n", mod, cls)
	fmt.Fprintf(&b, "    item = %s(**payload.model_dump())\n", cls)
	fmt.Fprintf(&b, "    await db.%s.insert_one(item.model_dump())\n", coll)
	fmt.Fprintf(&b, "    await track({\"event\": \"%s.create\", \"id\": item.id})\n", mod)
	b.WriteString("    return item\n\n\n")

	fmt.Fprintf(&b, "@router.put(\"/{item_id}\")\nasync def update_%s(item_id: str, payload: %sUpdate):\n", mod, cls)
	b.WriteString("    changes = {k: v for k, v in payload.model_dump().items() if v is not None}\n")
	fmt.Fprintf(&b, "    result = await db.%s.update_one({\"id\": item_id}, {\"$set\": changes})\n", coll)
	b.WriteString("    if result.matched_count == 0:\n")
	fmt.Fprintf(&b, "        raise HTTPException(status_code=404, detail=\"%s not found\")\n", cls)
	fmt.Fprintf(&b, "    await track({\"event\": \"%s.update\", \"id\": item_id})\n", mod)
	fmt.Fprintf(&b, "    return await db.%s.find_one({\"id\": item_id}, {\"_id\": 0})\n\n\n", coll)

	fmt.Fprintf(&b, "@router.delete(\"/{item_id}\", status_code=204)\nasync def delete_%s(item_id: str):\n", mod)
	fmt.Fprintf(&b, "    result = await db.%s.delete_one({\"id\": item_id})\n", coll)
	b.WriteString("    if result.deleted_count == 0:\n")
	fmt.Fprintf(&b, "        raise HTTPException(status_code=404, detail=\"%s not found\")\n", cls)
	fmt.Fprintf(&b, "    await track({\"event\": \"%s.delete\", \"id\": item_id})\n", mod)

	return b.String(), nil
}

func renderBackendMain(s *spec.AppSpecification) (string, error) {
	var b strings.Builder
	b.WriteString("from fastapi import FastAPI\n")
	b.WriteString("from fastapi.middleware.cors import CORSMiddleware\n\n")
	for _, m := range s.DataModels {
		fmt.Fprintf(&b, "from .routes import %s\n", Pluralize(m.Name))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "app = FastAPI(title=%q, version=%q)\n\n", s.Name, s.Version)
	b.WriteString("app.add_middleware(\n")
	b.WriteString("    CORSMiddleware,\n")
	b.WriteString("    allow_origins=[\"*\"],\n")
	b.WriteString("    allow_methods=[\"*\"],\n")
	b.WriteString("    allow_headers=[\"*\"],\n")
	b.WriteString(")\n\n")
	for _, m := range s.DataModels {
		fmt.Fprintf(&b, "app.include_router(%s.router)\n", Pluralize(m.Name))
	}
	b.WriteString("\n\n@app.get(\"/health\")\nasync def health():\n    return {\"status\": \"ok\"}\n")
	return b.String(), nil
}

func renderRequirements(s *spec.AppSpecification) string {
	lines := []string{"fastapi", "uvicorn[standard]", "motor", "httpx", "pydantic"}
	for _, m := range s.DataModels {
		for _, f := range m.Fields {
			if f.Type == spec.FieldEmail {
				lines = append(lines, "email-validator")
				return strings.Join(lines, "\n") + "\n"
			}
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
