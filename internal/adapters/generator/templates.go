package generator

// Script sources use [[ ]] delimiters so the {{key}} placeholders of node
// instructions pass through untouched. Runtime settings (base URLs,
// credentials, the AI client) come from the context argument supplied by the
// host platform.

const banner = `// [[.Kind]] step "[[comment .Name]]" ([[comment .ID]])
`

const opening = `[[if .ModuleList]]export default [[end]]async function run(input, context) {
  const config = [[json .Config]];
  const data = input && typeof input === "object" && !Array.isArray(input) ? input : {};
  const substitute = (text, values) => Object.entries(values).reduce(
    (acc, [key, value]) => acc.split("{{" + key + "}}").join(typeof value === "object" ? JSON.stringify(value) : String(value)),
    String(text),
  );
`

const header = banner + opening

const promptSource = header + `  const defaults = [[json .Defaults]];
  let instruction = substitute(config.instruction || "", data);
[[- if .ModuleList]]
  instruction = substitute(instruction, context.variables || {});
[[- end]]
  const model = config.model || defaults.model;
  const temperature = config.temperature ?? defaults.temperature;
  const maxTokens = config.maxTokens ?? defaults.maxTokens;
  let result;
  try {
    result = await context.ai.generate({ instruction, model, temperature, maxTokens });
  } catch (err) {
    throw new Error("prompt " + [[json .ID]] + " failed: " + (err && err.message ? err.message : String(err)));
  }
  if (!result || typeof result.text !== "string") {
    throw new Error("prompt " + [[json .ID]] + " failed: empty response");
  }
  return {
    response: result.text,
    model,
    tokensUsed: result.usage && result.usage.totalTokens ? result.usage.totalTokens : 0,
  };
}
`

const toolSource = header + `[[- if .HTTP]]
  const url = substitute(config.url, data);
  const method = String(config.method || "GET").toUpperCase();
  const headers = {};
  for (const [name, value] of Object.entries(config.headers || {})) {
    headers[name] = substitute(value, data);
  }
  const init = { method, headers };
  if (config.body !== undefined && method !== "GET" && method !== "HEAD") {
    init.body = substitute(typeof config.body === "string" ? config.body : JSON.stringify(config.body), data);
  }
  const response = await context.http.fetch(url, init);
  const text = await response.text();
  let parsed = text;
  try {
    parsed = JSON.parse(text);
  } catch (_) {
    // non-JSON bodies are returned as text
  }
  const responseHeaders = {};
  response.headers.forEach((value, name) => {
    responseHeaders[name] = value;
  });
  return { status: response.status, headers: responseHeaders, data: parsed };
}
[[- else]]
  return {
    service: config.service,
    action: config.action || null,
    result: { status: "not_implemented", input: data },
  };
}
[[- end]]
`

const logicSource = banner + `const OPERATORS = ["===", "==", "!=", ">", "<"];

function resolveOperand(token, ctx) {
  if (/^(["']).*\1$/.test(token)) return token.slice(1, -1);
  if (token !== "" && !Number.isNaN(Number(token))) return Number(token);
  if (token.includes(".")) return token.split(".").reduce((obj, key) => obj[key], ctx);
  return Object.prototype.hasOwnProperty.call(ctx, token) ? ctx[token] : token;
}

function evaluate(expression, ctx) {
  try {
    for (const op of OPERATORS) {
      const idx = expression.indexOf(op);
      if (idx === -1) continue;
      const left = resolveOperand(expression.slice(0, idx).trim(), ctx);
      const right = resolveOperand(expression.slice(idx + op.length).trim(), ctx);
      switch (op) {
        case "===": return left === right;
        case "==": return left == right;
        case "!=": return left != right;
        case ">": return left > right;
        case "<": return left < right;
      }
    }
    return false;
  } catch (_) {
    return false;
  }
}

` + opening + `  const condition = [[json .Condition]];
[[- if .Filter]]
  if (!Array.isArray(input)) {
    throw new Error("filter " + [[json .ID]] + " expects an array input");
  }
  return input.filter((item) => evaluate(condition, item));
[[- else]]
  return { condition: evaluate(condition, input), input };
[[- end]]
}
`

const memorySource = header + `  const key = config.key;
  const scope = config.scope || "workflow";
  const operation = config.operation || "store";
  const store = context.memory;
  switch (operation) {
    case "store":
    case "update": {
      const value = config.value !== undefined ? config.value : input;
      if (store) await store.set(scope, key, value);
      return { success: true, operation, key, scope };
    }
    case "delete":
      if (store) await store.delete(scope, key);
      return { success: true, operation, key, scope };
    case "retrieve":
      return { success: true, operation, key, scope, value: null, placeholder: true };
    default:
      throw new Error("memory " + [[json .ID]] + ": unsupported operation " + operation);
  }
}
`

const integrationSource = header + `  const integrationId = config.integration;
  const settings = (context.config.integrations || {})[integrationId];
  if (!settings || !settings.baseUrl) {
    throw new Error("no base URL configured for integration " + integrationId);
  }
  const credential = await context.credentials.get(integrationId);
  if (!credential || !credential.token) {
    throw new Error("missing credential for integration " + integrationId);
  }
  const endpoint = String(config.endpoint || "");
  const url = settings.baseUrl.replace(/\/+$/, "") + "/" + endpoint.replace(/^\/+/, "");
  const method = String(config.method || "POST").toUpperCase();
  const payload = config.payload !== undefined ? config.payload : input;
  const init = {
    method,
    headers: {
      "Content-Type": "application/json",
      Authorization: (settings.authScheme || "Bearer") + " " + credential.token,
    },
  };
  if (method !== "GET" && method !== "HEAD") {
    init.body = JSON.stringify(payload);
  }
  const response = await context.http.fetch(url, init);
  const rawResponse = await response.json().catch(() => null);
  let mapped = rawResponse;
  const mapping = config.fieldMapping;
  if (mapping && rawResponse && typeof rawResponse === "object") {
    mapped = {};
    for (const [field, path] of Object.entries(mapping)) {
      mapped[field] = String(path).split(".").reduce((obj, part) => (obj == null ? undefined : obj[part]), rawResponse);
    }
  }
  return { success: response.ok, data: mapped, rawResponse };
}
`
